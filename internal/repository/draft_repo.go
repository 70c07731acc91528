package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// ErrDraftNotFound is returned when no grading draft is stored for the key.
var ErrDraftNotFound = errors.New("grading draft not found")

// GradingDraft is a grader's in-progress work on one application, stored with
// the submission it was built from so edits never need to refetch it.
type GradingDraft struct {
	ApplicationID string            `json:"applicationId"`
	GraderID      string            `json:"graderId"`
	Submission    models.Submission `json:"submission"`
	Draft         grading.Draft     `json:"draft"`
	OpenedAt      time.Time         `json:"openedAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// DraftRepository stores grading drafts with an expiry.
type DraftRepository interface {
	Get(ctx context.Context, applicationID, graderID string) (GradingDraft, error)
	Save(ctx context.Context, draft GradingDraft, ttl time.Duration) error
	Delete(ctx context.Context, applicationID, graderID string) error
}

type draftRepository struct {
	client *redis.Client
	prefix string
}

// NewDraftRepository constructs a Redis-backed draft store.
func NewDraftRepository(client *redis.Client, prefix string) DraftRepository {
	if prefix == "" {
		prefix = "orbit:grading:draft"
	}
	return &draftRepository{client: client, prefix: prefix}
}

func (r *draftRepository) key(applicationID, graderID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, applicationID, graderID)
}

func (r *draftRepository) Get(ctx context.Context, applicationID, graderID string) (GradingDraft, error) {
	raw, err := r.client.Get(ctx, r.key(applicationID, graderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return GradingDraft{}, ErrDraftNotFound
		}
		return GradingDraft{}, err
	}

	var draft GradingDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return GradingDraft{}, fmt.Errorf("decode grading draft: %w", err)
	}
	return draft, nil
}

func (r *draftRepository) Save(ctx context.Context, draft GradingDraft, ttl time.Duration) error {
	if draft.ApplicationID == "" || draft.GraderID == "" {
		return fmt.Errorf("grading draft requires application and grader ids")
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(draft.ApplicationID, draft.GraderID), payload, ttl).Err()
}

func (r *draftRepository) Delete(ctx context.Context, applicationID, graderID string) error {
	return r.client.Del(ctx, r.key(applicationID, graderID)).Err()
}
