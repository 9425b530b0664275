//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

var errNoFAISS = errors.New("FAISS not available: build with -tags=faiss and install the FAISS C library")

// FAISSIndex is unavailable without the faiss build tag.
type FAISSIndex struct{}

// NewFAISSIndex always fails without the faiss build tag.
func NewFAISSIndex(int) (*FAISSIndex, error) { return nil, errNoFAISS }

// LoadFAISSIndex always fails without the faiss build tag.
func LoadFAISSIndex(string) (*FAISSIndex, error) { return nil, errNoFAISS }

func (f *FAISSIndex) Add(context.Context, [][]float32) error { return errNoFAISS }
func (f *FAISSIndex) Search(context.Context, []float32, int) ([]*VectorResult, error) {
	return nil, errNoFAISS
}
func (f *FAISSIndex) Truncate(int) error { return errNoFAISS }
func (f *FAISSIndex) Save(string) error  { return errNoFAISS }
func (f *FAISSIndex) Size() int          { return 0 }
func (f *FAISSIndex) Dimensions() int    { return 0 }
func (f *FAISSIndex) Close() error       { return nil }
func (f *FAISSIndex) Type() string       { return string(IndexTypeFAISS) }
