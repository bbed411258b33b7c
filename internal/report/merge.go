package report

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merger combines PDF files. The batch assembler talks to this interface so
// its merge bookkeeping can be tested without real PDFs.
type Merger interface {
	Merge(inputs []string, out string) error
}

// PDFCPUMerger merges with pdfcpu. Merging is done in bounded chunks upstream
// (the assembler's incremental partial merges), so a single call never sees an
// unbounded input list.
type PDFCPUMerger struct{}

func (PDFCPUMerger) Merge(inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	if err := api.MergeCreateFile(inputs, out, false, nil); err != nil {
		return fmt.Errorf("merge %d files into %s: %w", len(inputs), out, err)
	}
	return nil
}
