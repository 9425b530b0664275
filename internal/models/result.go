package models

// SearchResult is a single retrieval hit. Score is a distance: lower is more similar.
type SearchResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// RetrieveResponse is the response for a retrieve-knowledge request.
type RetrieveResponse struct {
	Results       []*SearchResult `json:"results"`
	Total         int             `json:"total"`
	Query         string          `json:"query"`
	KnowledgeBase string          `json:"knowledge_base_name,omitempty"`
	QueryTime     int64           `json:"query_time_ms"`
}
