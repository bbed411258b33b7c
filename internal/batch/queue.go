package batch

import (
	"log"

	"github.com/hydrotools/antecedent/internal/models"
)

// Queues holds the pending run records, one independent queue per parameter.
type Queues struct {
	lists map[models.Parameter][]models.Record
	keys  map[models.Parameter]map[string]bool
}

func NewQueues() *Queues {
	return &Queues{
		lists: make(map[models.Parameter][]models.Record),
		keys:  make(map[models.Parameter]map[string]bool),
	}
}

// Add queues a record unless its full tuple is already present. When the add
// was an explicit "add to batch" action a duplicate gets a notice; an implicit
// add (calculate with a pending queue) stays silent.
func (q *Queues) Add(rec models.Record, explicit bool) (count int, added bool) {
	p := rec.Parameter
	key := rec.Key()
	if q.keys[p] == nil {
		q.keys[p] = make(map[string]bool)
	}
	if q.keys[p][key] {
		if explicit {
			log.Printf("The selected inputs have already been added to the batch list.")
		}
		return len(q.lists[p]), false
	}
	q.keys[p][key] = true
	q.lists[p] = append(q.lists[p], rec)
	count = len(q.lists[p])
	log.Printf("%s Batch %d - %s (%s, %s) %s", p, count, rec.Date(),
		models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude), rec.ImageName)
	return count, true
}

// Len returns the number of queued records for one parameter.
func (q *Queues) Len(p models.Parameter) int {
	return len(q.lists[p])
}

// Records returns a snapshot of one parameter's queue in insertion order.
func (q *Queues) Records(p models.Parameter) []models.Record {
	out := make([]models.Record, len(q.lists[p]))
	copy(out, q.lists[p])
	return out
}

// Clear empties one parameter's queue.
func (q *Queues) Clear(p models.Parameter) {
	delete(q.lists, p)
	delete(q.keys, p)
}

// Replace discards any manually queued records for the parameter and installs
// the given set wholesale. Watershed runs use one record per sampling point;
// manual multi-row batches are not supported in that mode. Returns how many
// records were discarded.
func (q *Queues) Replace(p models.Parameter, recs []models.Record) int {
	discarded := len(q.lists[p])
	if discarded > 1 {
		log.Printf("Manual batch processing lists are not supported for watershed scales other than \"Single Point\"")
		log.Printf("  Clearing batch process queue to prepare for watershed random sampling points...")
	}
	q.Clear(p)
	for _, rec := range recs {
		if q.keys[p] == nil {
			q.keys[p] = make(map[string]bool)
		}
		q.keys[p][rec.Key()] = true
		q.lists[p] = append(q.lists[p], rec)
	}
	return discarded
}
