package vector

import "fmt"

// IndexType selects a VectorIndex backend.
type IndexType string

const (
	// IndexTypeMemory is the pure-Go exact index.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS is a FAISS IndexFlatL2. Requires -tags=faiss and libfaiss_c.
	IndexTypeFAISS IndexType = "faiss"
)

// indexFile names the persisted vector data for each backend.
func indexFile(t IndexType) string {
	if t == IndexTypeFAISS {
		return "index.faiss"
	}
	return "index.bin"
}

// NewVectorIndex creates an empty index of the given type ("" means memory).
func NewVectorIndex(indexType IndexType, dimensions int) (VectorIndex, error) {
	switch indexType {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// LoadVectorIndex reads an index of the given type from path.
func LoadVectorIndex(indexType IndexType, path string) (VectorIndex, error) {
	switch indexType {
	case IndexTypeMemory, "":
		return LoadMemoryIndex(path)
	case IndexTypeFAISS:
		return LoadFAISSIndex(path)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// IsFAISSAvailable reports whether FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
