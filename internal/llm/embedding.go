package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"maintenance-copilot/internal/common/config"
	commonhttp "maintenance-copilot/internal/common/http"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
)

const (
	embeddingProviderName = "gemini-embedding"
	embeddingCacheName    = "embedding"
)

// GeminiEmbedder calls embedContent and caches vectors in redis keyed by model and text hash.
type GeminiEmbedder struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	maxRetries int
	client     *commonhttp.Client
	limiter    *rate.Limiter
	cache      redis.Cmdable
	cacheTTL   time.Duration
	logger     logger.Logger
}

// NewGeminiEmbedder builds an embedder. cache may be nil to disable caching.
func NewGeminiEmbedder(cfg config.EmbeddingConfig, apiVersion string, cache redis.Cmdable, log logger.Logger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	return &GeminiEmbedder{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: apiVersion,
		model:      cfg.Model,
		maxRetries: 2,
		client:     commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		limiter:    newLimiter(0),
		cache:      cache,
		cacheTTL:   config.GetDuration(cfg.CacheTTL),
		logger:     log.With(map[string]interface{}{"component": "embedder", "model": cfg.Model}),
	}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)
	if vec, ok := e.fromCache(ctx, key); ok {
		return vec, nil
	}

	url := fmt.Sprintf("%s/%s/models/%s:embedContent?key=%s", e.baseURL, e.apiVersion, e.model, e.apiKey)
	body := embedRequest{
		Model:   "models/" + e.model,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var values []float32
	err := callWithRetry(ctx, embeddingProviderName, e.limiter, e.maxRetries, func(ctx context.Context) error {
		resp, err := e.client.PostJSON(ctx, url, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			apiErr := parseAPIError(resp.StatusCode, raw)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return permanent(apiErr)
			}
			return apiErr
		}

		var out embedResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("failed to decode embedding: %w", err)
		}
		if len(out.Embedding.Values) == 0 {
			return permanent(fmt.Errorf("empty embedding"))
		}
		values = out.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	e.toCache(ctx, key, values)
	return values, nil
}

func (e *GeminiEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("copilot:embedding:%s:%s", e.model, hex.EncodeToString(sum[:]))
}

func (e *GeminiEmbedder) fromCache(ctx context.Context, key string) ([]float32, bool) {
	if e.cache == nil {
		return nil, false
	}

	val, err := e.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			e.logger.Warn("embedding cache read failed", map[string]interface{}{"error": err.Error()})
		}
		metrics.CacheLookups.WithLabelValues(embeddingCacheName, "miss").Inc()
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal([]byte(val), &vec); err != nil {
		metrics.CacheLookups.WithLabelValues(embeddingCacheName, "miss").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(embeddingCacheName, "hit").Inc()
	return vec, true
}

func (e *GeminiEmbedder) toCache(ctx context.Context, key string, vec []float32) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL).Err(); err != nil {
		e.logger.Warn("embedding cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

type embedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}
