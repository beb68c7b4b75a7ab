package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const defaultDimensions = 768

// KnowledgeStore searches document chunks stored in elasticsearch with a dense_vector embedding.
type KnowledgeStore struct {
	client     *elasticsearch.Client
	index      string
	dimensions int
	logger     logger.Logger
}

func NewKnowledgeStore(client *elasticsearch.Client, index string, dimensions int, log logger.Logger) *KnowledgeStore {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &KnowledgeStore{
		client:     client,
		index:      index,
		dimensions: dimensions,
		logger:     log.With(map[string]interface{}{"store": "knowledge", "index": index}),
	}
}

func (s *KnowledgeStore) Index() string { return s.index }

// Search runs an approximate kNN query and keeps hits whose cosine similarity reaches opts.Threshold.
func (s *KnowledgeStore) Search(ctx context.Context, vector []float32, opts models.SearchOptions) ([]models.KnowledgeChunk, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	body, err := json.Marshal(buildKNNQuery(vector, limit, opts.Category))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var parsed knnResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	chunks := make([]models.KnowledgeChunk, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		// cosine scores are reported as (1 + cos) / 2
		similarity := 2*hit.Score - 1
		if similarity < opts.Threshold {
			continue
		}
		chunks = append(chunks, models.KnowledgeChunk{
			ID:           hit.ID,
			DocumentID:   hit.Source.DocumentID,
			Content:      hit.Source.Content,
			Source:       hit.Source.Source,
			PageNumber:   hit.Source.PageNumber,
			DocumentType: hit.Source.DocumentType,
			Similarity:   similarity,
		})
	}

	s.logger.Debug("knowledge search", map[string]interface{}{
		"hits":      len(parsed.Hits.Hits),
		"kept":      len(chunks),
		"threshold": opts.Threshold,
	})
	return chunks, nil
}

// EnsureIndex creates the chunk index with its vector mapping when it does not exist.
// It reports whether the index was created.
func (s *KnowledgeStore) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return false, nil
	}
	if res.StatusCode != http.StatusNotFound {
		return false, fmt.Errorf("check index %s: %s", s.index, res.Status())
	}

	mapping, err := json.Marshal(s.mapping())
	if err != nil {
		return false, err
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, fmt.Errorf("create index %s: %s", s.index, res.String())
	}

	s.logger.Info("knowledge index created", map[string]interface{}{"dimensions": s.dimensions})
	return true, nil
}

func (s *KnowledgeStore) mapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content":       map[string]interface{}{"type": "text"},
				"source":        map[string]interface{}{"type": "keyword"},
				"document_id":   map[string]interface{}{"type": "keyword"},
				"document_type": map[string]interface{}{"type": "keyword"},
				"page_number":   map[string]interface{}{"type": "integer"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       s.dimensions,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
}

func buildKNNQuery(vector []float32, limit int, category string) map[string]interface{} {
	candidates := limit * 10
	if candidates < 50 {
		candidates = 50
	}

	knn := map[string]interface{}{
		"field":          "embedding",
		"query_vector":   vector,
		"k":              limit,
		"num_candidates": candidates,
	}
	if category != "" {
		knn["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"document_type": category},
		}
	}

	return map[string]interface{}{
		"knn":     knn,
		"size":    limit,
		"_source": []string{"content", "source", "document_id", "document_type", "page_number"},
	}
}

type knnResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Content      string `json:"content"`
				Source       string `json:"source"`
				DocumentID   string `json:"document_id"`
				DocumentType string `json:"document_type"`
				PageNumber   *int   `json:"page_number"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
