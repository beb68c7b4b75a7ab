// internal/models/knowledge.go
package models

type KnowledgeChunk struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"documentId,omitempty"`
	Content      string  `json:"content"`
	Source       string  `json:"source"`
	PageNumber   *int    `json:"pageNumber,omitempty"`
	DocumentType string  `json:"documentType,omitempty"`
	Similarity   float64 `json:"similarity"`
}

// SearchOptions bounds a similarity search.
type SearchOptions struct {
	Limit     int
	Threshold float64
	Category  string
}
