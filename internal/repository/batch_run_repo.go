package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sentiment-probe/internal/dto"
)

// ErrBatchRunNotFound is returned when no stored run matches the identifier.
var ErrBatchRunNotFound = errors.New("batch run not found")

const batchRunKeyPrefix = "sentiment:batch:"

// BatchRunRepository keeps completed batch summaries for later retrieval.
type BatchRunRepository interface {
	Save(ctx context.Context, summary dto.BatchSummary) error
	Get(ctx context.Context, runID string) (dto.BatchSummary, error)
}

type redisBatchRunRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBatchRunRepository stores summaries as JSON values that expire after ttl.
func NewRedisBatchRunRepository(client *redis.Client, ttl time.Duration) BatchRunRepository {
	return &redisBatchRunRepository{client: client, ttl: ttl}
}

func (r *redisBatchRunRepository) Save(ctx context.Context, summary dto.BatchSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode batch run: %w", err)
	}
	if err := r.client.Set(ctx, batchRunKeyPrefix+summary.RunID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store batch run: %w", err)
	}
	return nil
}

func (r *redisBatchRunRepository) Get(ctx context.Context, runID string) (dto.BatchSummary, error) {
	cached, err := r.client.Get(ctx, batchRunKeyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dto.BatchSummary{}, ErrBatchRunNotFound
		}
		return dto.BatchSummary{}, fmt.Errorf("load batch run: %w", err)
	}

	var summary dto.BatchSummary
	if err := json.Unmarshal(cached, &summary); err != nil {
		return dto.BatchSummary{}, fmt.Errorf("decode batch run: %w", err)
	}
	return summary, nil
}

type memoryEntry struct {
	summary   dto.BatchSummary
	expiresAt time.Time
}

type memoryBatchRunRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryBatchRunRepository keeps summaries in process memory; used when no Redis is configured.
func NewMemoryBatchRunRepository(ttl time.Duration) BatchRunRepository {
	return &memoryBatchRunRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *memoryBatchRunRepository) Save(_ context.Context, summary dto.BatchSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, entry := range r.entries {
		if r.expired(entry, now) {
			delete(r.entries, id)
		}
	}

	r.entries[summary.RunID] = memoryEntry{summary: summary, expiresAt: now.Add(r.ttl)}
	return nil
}

func (r *memoryBatchRunRepository) Get(_ context.Context, runID string) (dto.BatchSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[runID]
	if !ok || r.expired(entry, r.now()) {
		delete(r.entries, runID)
		return dto.BatchSummary{}, ErrBatchRunNotFound
	}
	return entry.summary, nil
}

func (r *memoryBatchRunRepository) expired(entry memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.After(entry.expiresAt)
}
