package models

import (
	"testing"
)

func TestRetrieveQuery_Validate(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name          string
		query         *RetrieveQuery
		wantErr       bool
		wantK         int
		wantThreshold float64
	}{
		{"empty query", &RetrieveQuery{Query: ""}, true, 0, 0},
		{"defaults", &RetrieveQuery{Query: "hello"}, false, DefaultK, DefaultThreshold},
		{"keeps large k", &RetrieveQuery{Query: "x", K: 500}, false, 500, DefaultThreshold},
		{"keeps k", &RetrieveQuery{Query: "x", K: 5}, false, 5, DefaultThreshold},
		{"explicit zero threshold kept", &RetrieveQuery{Query: "x", Threshold: &zero}, false, DefaultK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.query.K != tt.wantK {
				t.Errorf("K = %d, want %d", tt.query.K, tt.wantK)
			}
			if got := tt.query.ThresholdOrDefault(); got != tt.wantThreshold {
				t.Errorf("threshold = %v, want %v", got, tt.wantThreshold)
			}
		})
	}
}

func TestChunk_Source(t *testing.T) {
	c := &Chunk{Text: "x", Metadata: map[string]interface{}{MetaSource: "/kb/a.md"}}
	if c.Source() != "/kb/a.md" {
		t.Errorf("Source() = %q", c.Source())
	}
	if (&Chunk{}).Source() != "" {
		t.Error("nil metadata should give empty source")
	}
}
