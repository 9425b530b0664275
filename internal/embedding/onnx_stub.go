//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

const providerONNX = "onnx"

var errNoCGO = &ProviderError{
	Provider: providerONNX,
	Err:      errors.New("requires CGO; build with CGO_ENABLED=1 and onnxruntime"),
}

// ONNXEmbedder is unavailable without CGO.
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails when built without CGO.
func NewONNXEmbedder(_ ONNXConfig) (*ONNXEmbedder, error) {
	return nil, errNoCGO
}

func (e *ONNXEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, errNoCGO }
func (e *ONNXEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errNoCGO
}
func (e *ONNXEmbedder) Dimensions() int   { return 0 }
func (e *ONNXEmbedder) ModelName() string { return "" }
func (e *ONNXEmbedder) Close() error      { return nil }
