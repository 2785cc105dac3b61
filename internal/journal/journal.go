package journal

import (
	"context"
	"time"

	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/textutil"

	"github.com/google/uuid"
)

// Entry is one applied field edit.
type Entry struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	File       string    `json:"file"`
	Class      string    `json:"class"`
	Unit       string    `json:"unit"`
	Field      string    `json:"field"`
	Old        string    `json:"old"`
	New        string    `json:"new"`
	BeforeHash string    `json:"before_hash"`
	AfterHash  string    `json:"after_hash"`
}

// Journal stores edit history.
type Journal interface {
	// Record appends entries in one transaction.
	Record(ctx context.Context, entries ...Entry) error
	// List returns the newest entries first, optionally for one file.
	List(ctx context.Context, file string, limit int) ([]Entry, error)
	Close() error
}

// Entries turns the changes of one write into journal entries sharing the
// document hashes.
func Entries(file, before, after string, changes []editor.Change) []Entry {
	now := time.Now().UTC()
	beforeHash, afterHash := textutil.Hash(before), textutil.Hash(after)

	out := make([]Entry, 0, len(changes))
	for _, ch := range changes {
		out = append(out, Entry{
			ID:         uuid.NewString(),
			At:         now,
			File:       file,
			Class:      ch.Class,
			Unit:       ch.ID,
			Field:      ch.Key,
			Old:        ch.Old,
			New:        ch.New,
			BeforeHash: beforeHash,
			AfterHash:  afterHash,
		})
	}
	return out
}

// Nop discards everything. It is used when no journal is configured.
type Nop struct{}

func (Nop) Record(context.Context, ...Entry) error { return nil }
func (Nop) List(context.Context, string, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error { return nil }
