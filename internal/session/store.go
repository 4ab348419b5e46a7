package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
)

const messageCols = "id, session_id, role, content, created_at"

// Store manages session and message persistence with a PostgreSQL backend.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store over the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// GetOrCreate returns the session with the given id, creating it if it
// does not exist. The operation is idempotent: a second call with the
// same id returns the original row unchanged, including created_at.
func (s *Store) GetOrCreate(ctx context.Context, sessionID, userID string) (*Session, error) {
	// INSERT ... ON CONFLICT DO NOTHING followed by SELECT keeps this
	// race-free for concurrent first references to the same id.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (id) DO NOTHING`,
		sessionID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session %s: %w", sessionID, err)
	}

	var sess Session
	var uid *string
	err = s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, last_active_at
		FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&sess.ID, &uid, &sess.CreatedAt, &sess.LastActiveAt)
	if err != nil {
		return nil, fmt.Errorf("fetching session %s: %w", sessionID, err)
	}
	if uid != nil {
		sess.UserID = *uid
	}
	return &sess, nil
}

// UpdateLastActive sets last_active_at to now. Updating a missing
// session is a silent no-row update, not an error.
func (s *Store) UpdateLastActive(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_active_at = NOW() WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("updating last_active for session %s: %w", sessionID, err)
	}
	return nil
}

// SaveMessage validates the role against the closed set and inserts an
// immutable message row. Returns ErrInvalidRole before any I/O when the
// role is outside user/assistant/system.
func (s *Store) SaveMessage(ctx context.Context, sessionID, role, content string) (*Message, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q (must be one of: user, assistant, system)", ErrInvalidRole, role)
	}

	var msg Message
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING `+messageCols,
		sessionID, role, content,
	).Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving %s message for session %s: %w", role, sessionID, err)
	}

	s.logger.Debug("message saved",
		"session_id", sessionID, "message_id", msg.ID, "role", role,
		"content_length", len(content))
	return &msg, nil
}

// RecentMessages returns the limit most recent messages for a session in
// chronological order (oldest first), the form consumed as conversation
// memory. The query fetches newest-first by (created_at, id) and the
// result is reversed.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageCols+`
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching messages for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching messages for session %s: %w", sessionID, err)
	}

	slices.Reverse(messages)
	return messages, nil
}
