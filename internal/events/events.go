package events

import (
	"context"
	"log/slog"
	"time"
)

// EntryRecorded is emitted after a ledger entry commits. Amounts travel as
// strings to keep decimal precision across consumers.
type EntryRecorded struct {
	EntryID     string    `json:"entry_id"`
	ClientID    string    `json:"client_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	ReferenceID string    `json:"reference_id,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Publisher delivers ledger events to downstream consumers. Publishing is
// best effort; a failed publish never rolls back the entry it describes.
type Publisher interface {
	EntryRecorded(ctx context.Context, event EntryRecorded) error
	Close() error
}

// LogPublisher writes events to the structured log. It is the fallback when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) EntryRecorded(ctx context.Context, event EntryRecorded) error {
	p.logger.InfoContext(ctx, "ledger entry recorded",
		"entry_id", event.EntryID,
		"client_id", event.ClientID,
		"type", event.Type,
		"amount", event.Amount,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
