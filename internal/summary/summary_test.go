package summary

import "testing"

func TestParseEmpty(t *testing.T) {
	if got := Parse(nil); got != nil {
		t.Fatalf("Parse(nil) = %+v, want nil", got)
	}
}

func TestParseDetermination(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"dry", []float64{6, 8, 9}, ConditionDry},
		{"normal boundary low", []float64{10, 10, 10}, ConditionNormal},
		{"normal", []float64{12, 13, 14}, ConditionNormal},
		{"wet boundary", []float64{15, 15, 15}, ConditionWet},
		{"wet", []float64{16, 18, 17}, ConditionWet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []PointResult
			for _, s := range tt.scores {
				results = append(results, PointResult{Score: s, Condition: ConditionNormal, Season: "Wet Season", PDSIClass: "Mild wetness"})
			}
			p := Parse(results)
			if p.Determination != tt.want {
				t.Errorf("Determination = %q, want %q (avg %.2f)", p.Determination, tt.want, p.AverageScore)
			}
		})
	}
}

func TestParseShares(t *testing.T) {
	results := []PointResult{
		{Score: 16, Condition: ConditionWet, Season: "Wet Season", PDSIClass: "Mild wetness"},
		{Score: 12, Condition: ConditionNormal, Season: "Wet Season", PDSIClass: "Normal"},
		{Score: 12, Condition: ConditionNormal, Season: "Wet Season", PDSIClass: "Normal"},
		{Score: 7, Condition: ConditionDry, Season: "Dry Season", PDSIClass: "Mild drought"},
	}
	p := Parse(results)
	if len(p.Shares) != 3 {
		t.Fatalf("got %d shares, want 3", len(p.Shares))
	}
	wantOrder := []string{ConditionWet, ConditionNormal, ConditionDry}
	wantFrac := []float64{0.25, 0.5, 0.25}
	for i, s := range p.Shares {
		if s.Label != wantOrder[i] {
			t.Errorf("share %d label = %q, want %q", i, s.Label, wantOrder[i])
		}
		if s.Fraction != wantFrac[i] {
			t.Errorf("share %d fraction = %v, want %v", i, s.Fraction, wantFrac[i])
		}
	}
}

func TestParseTableGroupsAndSorts(t *testing.T) {
	results := []PointResult{
		{Score: 12, Condition: ConditionNormal, Season: "Wet Season", PDSIClass: "Normal"},
		{Score: 16, Condition: ConditionWet, Season: "Wet Season", PDSIClass: "Mild wetness"},
		{Score: 12, Condition: ConditionNormal, Season: "Wet Season", PDSIClass: "Normal"},
		{Score: 7, Condition: ConditionDry, Season: "Dry Season", PDSIClass: "Mild drought"},
	}
	p := Parse(results)
	if len(p.Table) != 3 {
		t.Fatalf("got %d rows, want 3", len(p.Table))
	}
	if p.Table[0].Score != 16 || p.Table[2].Score != 7 {
		t.Errorf("table not sorted by score desc: %+v", p.Table)
	}
	if p.Table[1].Count != 2 {
		t.Errorf("duplicate tuple count = %d, want 2", p.Table[1].Count)
	}
	if !p.Table[2].RedFlag {
		t.Errorf("dry season + drought row should be flagged red")
	}
	if p.Table[0].RedFlag {
		t.Errorf("wet row should not be flagged red")
	}
}
