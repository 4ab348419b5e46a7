package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// MockEmbedder produces deterministic embeddings without a model.
// Each token is hashed onto one dimension, so texts sharing words get
// high cosine similarity and unrelated texts stay near-orthogonal.
type MockEmbedder struct {
	dim int

	mu    sync.Mutex
	calls int
	err   error
}

// NewMockEmbedder creates a MockEmbedder producing vectors of the given
// dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim}
}

// FailWith makes every subsequent Embed call return err.
func (m *MockEmbedder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Embed invocations.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vec := make([]float32, m.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(token, ".,!?;:\"'()")))
		vec[int(h.Sum32())%m.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// MockGenerator returns canned completions keyed by substring match on
// the prompt, with a fallback for everything else.
type MockGenerator struct {
	mu       sync.Mutex
	rules    []generatorRule
	fallback string
	prompts  []string
	err      error
}

type generatorRule struct {
	substring string
	response  string
}

// NewMockGenerator creates a generator answering fallback for any prompt.
func NewMockGenerator(fallback string) *MockGenerator {
	return &MockGenerator{fallback: fallback}
}

// RespondWith registers a canned response for prompts containing substring.
// Rules are checked in registration order.
func (m *MockGenerator) RespondWith(substring, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, generatorRule{substring: substring, response: response})
}

// FailWith makes every subsequent Generate call return err.
func (m *MockGenerator) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns a copy of every prompt received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *MockGenerator) Generate(_ context.Context, prompt string, _ float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	for _, rule := range m.rules {
		if strings.Contains(prompt, rule.substring) {
			return rule.response, nil
		}
	}
	return m.fallback, nil
}
