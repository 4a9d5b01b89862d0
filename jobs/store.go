package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Export states.
const (
	StatePending = "pending"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// ErrExportNotFound is returned for unknown or expired export IDs.
var ErrExportNotFound = errors.New("jobs: export not found")

// Record describes one full export.
type Record struct {
	ID          string    `json:"id"`
	Report      string    `json:"report"`
	Title       string    `json:"title"`
	Format      string    `json:"format"`
	State       string    `json:"state"`
	Filename    string    `json:"filename,omitempty"`
	Rows        int       `json:"rows"`
	Pages       int       `json:"pages"`
	Error       string    `json:"error,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Done reports whether the export finished, successfully or not.
func (r Record) Done() bool {
	return r.State == StateReady || r.State == StateFailed
}

// ExportStore keeps export records and finished files in Redis.
type ExportStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewExportStore constructs an ExportStore; entries expire after ttl.
func NewExportStore(client *redis.Client, ttl time.Duration) *ExportStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExportStore{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new pending record.
func (s *ExportStore) Create(ctx context.Context, rec Record) (Record, error) {
	now := s.now()
	rec.State = StatePending
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec, s.save(ctx, rec)
}

// Get loads the record with id.
func (s *ExportStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrExportNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("jobs: decode export %s: %w", id, err)
	}
	return rec, nil
}

// Progress records how many pages were fetched so far.
func (s *ExportStore) Progress(ctx context.Context, id string, pages int) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.Pages = pages
	rec.UpdatedAt = s.now()
	return s.save(ctx, rec)
}

// MarkReady stores the file and flips the record to ready.
func (s *ExportStore) MarkReady(ctx context.Context, id, filename string, data []byte, rows, pages int) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.State = StateReady
	rec.Filename = filename
	rec.Rows = rows
	rec.Pages = pages
	rec.Error = ""
	rec.UpdatedAt = s.now()
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fileKey(id), data, s.ttl)
		pipe.Set(ctx, recordKey(id), payload, s.ttl)
		return nil
	})
	return err
}

// MarkFailed flips the record to failed with a display message.
func (s *ExportStore) MarkFailed(ctx context.Context, id, message string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.State = StateFailed
	rec.Error = message
	rec.UpdatedAt = s.now()
	return s.save(ctx, rec)
}

// File returns the stored export file.
func (s *ExportStore) File(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, fileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrExportNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *ExportStore) save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, recordKey(rec.ID), data, s.ttl).Err()
}

func recordKey(id string) string { return "tne:export:" + id }

func fileKey(id string) string { return "tne:export:" + id + ":file" }
