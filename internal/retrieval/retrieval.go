// Package retrieval shortlists registered tools for a subtask by embedding
// similarity, so the tool-selecting executor prompts with a few relevant
// tools instead of the whole catalog.
package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/example/desktop-assistant/internal/tools"
)

// Service answers top-K queries over the registered tool descriptions.
type Service interface {
	TopK(ctx context.Context, query string, k int) ([]string, error)
}

// Index is an in-memory chromem-go collection built once at startup.
type Index struct {
	col  *chromem.Collection
	size int
}

// NewIndex embeds one "name: description" document per registered tool.
func NewIndex(ctx context.Context, infos []tools.Info, embed chromem.EmbeddingFunc) (*Index, error) {
	if embed == nil {
		embed = DefaultEmbedding()
	}
	db := chromem.NewDB()
	col, err := db.CreateCollection("tools", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating tool collection: %w", err)
	}
	docs := make([]chromem.Document, 0, len(infos))
	for i, info := range infos {
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("tool-%d", i),
			Content:  info.Name + ": " + info.Description,
			Metadata: map[string]string{"name": info.Name},
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("indexing tools: %w", err)
		}
	}
	return &Index{col: col, size: len(docs)}, nil
}

// TopK returns up to k "name: description" lines most similar to query.
func (ix *Index) TopK(ctx context.Context, query string, k int) ([]string, error) {
	if ix.size == 0 {
		return nil, nil
	}
	if k > ix.size {
		k = ix.size
	}
	if k <= 0 {
		k = 1
	}
	results, err := ix.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying tool index: %w", err)
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out, nil
}

// DefaultEmbedding picks chromem's OpenAI embedder when a key is configured,
// falling back to a deterministic local embedding so the engine works
// offline.
func DefaultEmbedding() chromem.EmbeddingFunc {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return chromem.NewEmbeddingFuncDefault()
	}
	return LocalEmbedding()
}

const localDims = 256

// LocalEmbedding is a normalized token-hash bag-of-words vector. It is no
// substitute for a learned model but ranks short tool descriptions well
// enough for a shortlist, and it needs no network or ONNX runtime.
func LocalEmbedding() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec := make([]float32, localDims)
		for _, tok := range tokenize(text) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%localDims]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
		return vec, nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}
