// Package embedprovider defines the EmbeddingProvider port and an
// OpenAI-backed implementation: a cache keyed on a content hash, a
// simple token-bucket RateLimiter, and []float32/[]float64 conversion at
// the CreateEmbeddings boundary.
package embedprovider

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"collector/internal/engineerr"
)

// Provider generates embedding vectors for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}

// OpenAIProvider implements Provider against the OpenAI embeddings API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration

	cacheMu sync.RWMutex
	cache   map[string][]float64

	limiter *rateLimiter
}

// Config configures an OpenAIProvider.
type Config struct {
	APIKey                string
	Model                 string
	RequestTimeoutSeconds int
	RateLimitRPM          int
}

// New builds an OpenAIProvider from cfg.
func New(cfg Config) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	timeout := cfg.RequestTimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = 60
	}
	return &OpenAIProvider{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: time.Duration(timeout) * time.Second,
		cache:   make(map[string][]float64),
		limiter: newRateLimiter(rpm, time.Minute/time.Duration(rpm)),
	}
}

// Dimension reports the vector length the configured model produces.
func (p *OpenAIProvider) Dimension() int {
	switch p.model {
	case "text-embedding-3-large":
		return 3072
	default:
		return 1536
	}
}

// Embed returns the embedding for a single text, serving from cache when
// the same (model, text) pair was embedded before.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, engineerr.NewMalformedInput("embedding text must not be empty")
	}

	key := p.cacheKey(text)
	if cached := p.fromCache(key); cached != nil {
		return cached, nil
	}

	if err := p.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("embedprovider: rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, engineerr.NewEmbeddingFailure(err)
	}
	if len(resp.Data) == 0 {
		return nil, engineerr.NewEmbeddingFailure(fmt.Errorf("no embeddings returned"))
	}

	vec := toFloat64(resp.Data[0].Embedding)
	p.toCache(key, vec)
	return vec, nil
}

// EmbedBatch embeds texts in a single request where possible, reusing
// cached vectors for any text already seen.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, engineerr.NewMalformedInput("embedding batch must not be empty")
	}

	results := make([][]float64, len(texts))
	var pending []string
	var pendingIdx []int

	for i, text := range texts {
		if text == "" {
			continue
		}
		key := p.cacheKey(text)
		if cached := p.fromCache(key); cached != nil {
			results[i] = cached
			continue
		}
		pending = append(pending, text)
		pendingIdx = append(pendingIdx, i)
	}

	if len(pending) == 0 {
		return results, nil
	}

	if err := p.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("embedprovider: rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
		Input: pending,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, engineerr.NewEmbeddingFailure(err)
	}
	if len(resp.Data) != len(pending) {
		return nil, engineerr.NewEmbeddingFailure(
			fmt.Errorf("embedding count mismatch: sent %d, got %d", len(pending), len(resp.Data)))
	}

	for i, data := range resp.Data {
		vec := toFloat64(data.Embedding)
		results[pendingIdx[i]] = vec
		p.toCache(p.cacheKey(pending[i]), vec)
	}
	return results, nil
}

func (p *OpenAIProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(p.model + "|" + text))
	return fmt.Sprintf("%x", sum)
}

func (p *OpenAIProvider) fromCache(key string) []float64 {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	v, ok := p.cache[key]
	if !ok {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func (p *OpenAIProvider) toCache(key string, vec []float64) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	stored := make([]float64, len(vec))
	copy(stored, vec)
	p.cache[key] = stored

	const maxCacheSize = 1000
	const cleanupBatch = 100
	if len(p.cache) > maxCacheSize {
		removed := 0
		for k := range p.cache {
			delete(p.cache, k)
			removed++
			if removed >= cleanupBatch {
				break
			}
		}
	}
}

func toFloat64(f32 []float32) []float64 {
	out := make([]float64, len(f32))
	for i, v := range f32 {
		out[i] = float64(v)
	}
	return out
}
