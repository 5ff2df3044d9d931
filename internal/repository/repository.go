package repository

import (
	"context"

	"bnshell/internal/domain"
)

// Journal records shell sessions
type Journal interface {
	// BeginSession registers a new session against the named engine context
	BeginSession(ctx context.Context, id, contextName string) error

	// Record appends an entry to its session and fills in Seq and CreatedAt
	Record(ctx context.Context, entry *domain.JournalEntry) error

	// Read operations
	ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error)
	Entries(ctx context.Context, sessionID string) ([]domain.JournalEntry, error)
	ResolveSession(ctx context.Context, prefix string) (string, error)

	DeleteSession(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
