// Package content is a generic typed record store with string key/value
// metadata per record.
package content

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Record statuses understood by the store.
const (
	StatusPublish   = "publish"
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusAutoDraft = "auto-draft"
)

var (
	// ErrNotFound is returned for unknown record ids.
	ErrNotFound = errors.New("content record not found")
	// ErrInvalidInput is returned when a record is missing its type.
	ErrInvalidInput = errors.New("invalid content record")
)

// Record is one typed content entry. Meta is populated by Get and List.
type Record struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Store is the content persistence surface.
type Store interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// List returns records of typ, newest first. An empty status matches any.
	List(ctx context.Context, typ, status string) ([]Record, error)
	Update(ctx context.Context, id, title, status string) (Record, error)
	SetStatus(ctx context.Context, id, status string) error
	// Delete removes the record together with its metadata.
	Delete(ctx context.Context, id string) error
	Meta(ctx context.Context, id string) (map[string]string, error)
	GetMeta(ctx context.Context, id, key string) (string, bool, error)
	UpdateMeta(ctx context.Context, id, key, value string) error
	DeleteMeta(ctx context.Context, id, key string) error
	// FindMaxMetaAtMost returns the record of typ and status carrying key whose
	// numeric value is the greatest one <= n. Ties go to the newest record.
	FindMaxMetaAtMost(ctx context.Context, typ, status, key string, n int64) (Record, bool, error)
	Ping(ctx context.Context) error
}

// maxNumericDigits keeps numeric meta reads inside bigint in both stores.
const maxNumericDigits = 18

// NumericValue reads a meta value as an integer. Anything that is not a plain
// (optionally signed) integer of at most 18 digits reads as 0.
func NumericValue(value string) int64 {
	trimmed := strings.TrimSpace(value)
	digits := strings.TrimLeft(trimmed, "+-")
	if len(digits) == 0 || len(digits) > maxNumericDigits || len(trimmed)-len(digits) > 1 {
		return 0
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func normalizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return StatusDraft
	}
	return status
}
