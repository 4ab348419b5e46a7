// Package chat implements the turn-by-turn RAG orchestration algorithm.
//
// A turn moves through: resolve session → persist question → load history
// → condense query → retrieve context → generate answer → attribute
// sources → persist answer. The orchestrator is stateless across turns;
// all conversation state lives in the session store. No per-session
// mutual exclusion is provided: concurrent turns for one session
// interleave, and message order is decided by database timestamps alone.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/ragvault/ragvault/internal/session"
)

// snippetLimit bounds source excerpts, in runes.
const snippetLimit = 200

// Chunk is one retrieved context fragment with its relevance score.
// Scores are whatever the vector index returns, higher is more relevant;
// they are not renormalized.
type Chunk struct {
	Content  string
	Metadata map[string]string
	Score    float32
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the k highest-similarity chunks for a query vector,
// ranked by descending score. A non-empty vaultID scopes the search to
// one vault.
type Retriever interface {
	Query(ctx context.Context, vector []float32, k int, vaultID string) ([]Chunk, error)
}

// Generator produces text from a prompt at the given temperature.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// SessionStore is the slice of the session store the orchestrator needs.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID, userID string) (*session.Session, error)
	UpdateLastActive(ctx context.Context, sessionID string) error
	SaveMessage(ctx context.Context, sessionID, role, content string) (*session.Message, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]session.Message, error)
}

// Source attributes one retrieved chunk in a chat response.
type Source struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float32 `json:"score"`
}

// Request is one inbound chat turn.
type Request struct {
	SessionID   string
	UserID      string
	Message     string
	VaultID     string
	TopK        int
	Temperature float32
}

// Response is the result of one chat turn.
type Response struct {
	SessionID string   `json:"sessionId"`
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
}

// Options tune the orchestrator.
type Options struct {
	MaxHistoryMessages int
	Retry              RetryConfig
}

// Orchestrator ties the session store, embedding provider, vector index,
// and generative model into the chat-turn algorithm.
//
// Orchestrator is safe for concurrent use by multiple goroutines.
type Orchestrator struct {
	sessions  SessionStore
	embedder  Embedder
	retriever Retriever
	generator Generator

	maxHistory int
	retry      RetryConfig
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(sessions SessionStore, embedder Embedder, retriever Retriever, generator Generator, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxHistoryMessages <= 0 {
		opts.MaxHistoryMessages = 10
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &Orchestrator{
		sessions:   sessions,
		embedder:   embedder,
		retriever:  retriever,
		generator:  generator,
		maxHistory: opts.MaxHistoryMessages,
		retry:      opts.Retry,
		logger:     logger,
	}
}

// Respond runs one chat turn.
//
// The user message is persisted before any provider work and is never
// rolled back: the conversation record always reflects what was asked.
// Failures after that point are wrapped in *GenerationError; the
// assistant message is written only when generation fully succeeds, so a
// persistence failure at the final step means the produced answer may be
// lost.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (*Response, error) {
	logger := o.logger.With("session_id", req.SessionID)
	logger.Info("chat turn started",
		"vault_id", req.VaultID, "top_k", req.TopK,
		"message_length", len(req.Message))

	if _, err := o.sessions.GetOrCreate(ctx, req.SessionID, req.UserID); err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	if err := o.sessions.UpdateLastActive(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("touching session: %w", err)
	}

	if _, err := o.sessions.SaveMessage(ctx, req.SessionID, session.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	// History includes the just-persisted user message; drop it so the
	// condensation and generation steps see prior turns plus the new
	// message exactly once.
	recent, err := o.sessions.RecentMessages(ctx, req.SessionID, o.maxHistory)
	if err != nil {
		return nil, &GenerationError{SessionID: req.SessionID, Err: fmt.Errorf("loading history: %w", err)}
	}
	if n := len(recent); n > 0 && recent[n-1].Role == session.RoleUser && recent[n-1].Content == req.Message {
		recent = recent[:n-1]
	}
	history := session.FormatForGeneration(recent)

	query, err := o.condense(ctx, history, req.Message)
	if err != nil {
		return nil, &GenerationError{SessionID: req.SessionID, Err: err}
	}

	chunks, err := o.retrieve(ctx, query, req.TopK, req.VaultID)
	if err != nil {
		return nil, &GenerationError{SessionID: req.SessionID, Err: err}
	}
	logger.Debug("context retrieved", "chunks", len(chunks), "query_length", len(query))

	var answer string
	genErr := o.withRetry(ctx, "generate", func(ctx context.Context) error {
		var err error
		answer, err = o.generator.Generate(ctx, answerPrompt(chunks, history, req.Message), req.Temperature)
		return err
	})
	if genErr != nil {
		return nil, &GenerationError{SessionID: req.SessionID, Err: genErr}
	}

	sources := buildSources(chunks)

	if _, err := o.sessions.SaveMessage(ctx, req.SessionID, session.RoleAssistant, answer); err != nil {
		// The answer was produced but not durably stored; callers must
		// treat it as possibly lost.
		return nil, &GenerationError{SessionID: req.SessionID, Err: fmt.Errorf("persisting answer: %w", err)}
	}

	logger.Info("chat turn completed",
		"answer_length", len(answer), "sources", len(sources))
	return &Response{SessionID: req.SessionID, Answer: answer, Sources: sources}, nil
}

// condense folds history and the new message into a standalone query.
// With no prior turns there is nothing to resolve, so the message itself
// is the query.
func (o *Orchestrator) condense(ctx context.Context, history []session.Turn, message string) (string, error) {
	if len(history) == 0 {
		return message, nil
	}

	var query string
	err := o.withRetry(ctx, "condense", func(ctx context.Context) error {
		var err error
		query, err = o.generator.Generate(ctx, condensePrompt(history, message), 0)
		return err
	})
	if err != nil {
		return "", err
	}
	if query == "" {
		query = message
	}
	return query, nil
}

// retrieve embeds the query and asks the vector index for the topK most
// similar chunks, optionally scoped to a vault.
func (o *Orchestrator) retrieve(ctx context.Context, query string, topK int, vaultID string) ([]Chunk, error) {
	var vector []float32
	err := o.withRetry(ctx, "embed", func(ctx context.Context) error {
		var err error
		vector, err = o.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	chunks, err := o.retriever.Query(ctx, vector, topK, vaultID)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}
	return chunks, nil
}

// buildSources maps retrieved chunks to attribution records, preserving
// the index's ranking. Chunks without a document_id in their metadata
// are attributed to "unknown".
func buildSources(chunks []Chunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for _, chunk := range chunks {
		documentID := chunk.Metadata["document_id"]
		if documentID == "" {
			documentID = "unknown"
		}
		sources = append(sources, Source{
			DocumentID: documentID,
			Title:      chunk.Metadata["title"],
			Snippet:    snippet(chunk.Content),
			Score:      chunk.Score,
		})
	}
	return sources
}

// snippet returns the first snippetLimit runes of text.
func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLimit])
}
