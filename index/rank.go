// Package index ranks candidate context documents by semantic similarity and
// scrubs secrets from shell scripts before they leave the machine.
package index

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/coder/hnsw"
	"github.com/jellydator/ttlcache/v3"
)

const (
	indexBatchSize = 32
	// maxEmbedBytes caps the text embedded per document.
	maxEmbedBytes = 4096
)

// Candidate is a document considered for cross-file context.
type Candidate struct {
	// Key uniquely identifies the candidate, usually its path.
	Key  string
	Text string
}

// Ranker orders candidates by similarity to a query. Document embeddings are
// cached by content hash so unchanged files are embedded once per TTL.
type Ranker struct {
	embedder *Embedder
	vectors  *ttlcache.Cache[string, []float32]
}

// NewRanker creates a ranker backed by embedder.
func NewRanker(embedder *Embedder, ttl time.Duration) *Ranker {
	c := ttlcache.New[string, []float32](
		ttlcache.WithTTL[string, []float32](ttl),
	)
	go c.Start()
	return &Ranker{embedder: embedder, vectors: c}
}

// Close stops the cache expiration loop.
func (r *Ranker) Close() {
	r.vectors.Stop()
}

// Rank returns up to topK candidates, most similar to query first.
func (r *Ranker) Rank(ctx context.Context, query string, candidates []Candidate, topK int) ([]Candidate, error) {
	if len(candidates) == 0 || topK <= 0 {
		return nil, nil
	}

	hashes := make([]string, len(candidates))
	var missing []int
	for i, c := range candidates {
		hashes[i] = hashText(c.Text)
		if r.vectors.Get(hashes[i]) == nil {
			missing = append(missing, i)
		}
	}

	for start := 0; start < len(missing); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = clip(candidates[idx].Text, maxEmbedBytes)
		}
		vecs, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed candidates: %w", err)
		}
		for j, idx := range batch {
			r.vectors.Set(hashes[idx], vecs[j], ttlcache.DefaultTTL)
		}
	}

	queryVec, err := r.embedder.Embed(ctx, clip(query, maxEmbedBytes))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	graph := hnsw.NewGraph[string]()
	byKey := make(map[string]Candidate, len(candidates))
	nodes := make([]hnsw.Node[string], 0, len(candidates))
	for i, c := range candidates {
		if _, dup := byKey[c.Key]; dup {
			continue
		}
		item := r.vectors.Get(hashes[i])
		if item == nil || len(item.Value()) != len(queryVec) {
			continue
		}
		byKey[c.Key] = c
		nodes = append(nodes, hnsw.MakeNode(c.Key, item.Value()))
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	graph.Add(nodes...)

	neighbors := graph.Search(queryVec, topK)
	ranked := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		ranked = append(ranked, byKey[n.Key])
	}
	return ranked, nil
}

func hashText(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

// clip truncates s to at most maxBytes, backing off to a UTF-8 boundary.
func clip(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	i := maxBytes
	for i > 0 && s[i]&0xC0 == 0x80 {
		i--
	}
	return s[:i]
}
