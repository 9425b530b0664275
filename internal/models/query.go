package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned for a blank query string.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Retrieval defaults.
const (
	DefaultK         = 10
	DefaultThreshold = 2.0
)

// RetrieveQuery is a retrieve-knowledge request. Threshold is a pointer so an
// explicit 0 is distinguishable from "use the default".
type RetrieveQuery struct {
	Query         string   `json:"query"`
	KnowledgeBase string   `json:"knowledge_base_name,omitempty"`
	K             int      `json:"k,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
}

// Validate ensures the query is non-empty and fills defaults for k and threshold.
func (q *RetrieveQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.K <= 0 {
		q.K = DefaultK
	}
	if q.Threshold == nil {
		t := DefaultThreshold
		q.Threshold = &t
	}
	return nil
}

// ThresholdOrDefault returns the threshold, or DefaultThreshold when unset.
func (q *RetrieveQuery) ThresholdOrDefault() float64 {
	if q.Threshold == nil {
		return DefaultThreshold
	}
	return *q.Threshold
}
