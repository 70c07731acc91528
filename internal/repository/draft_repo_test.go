package repository_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
)

func newDraftRepo(t *testing.T) (repository.DraftRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewDraftRepository(client, ""), mr
}

func TestDraftRepositoryRoundTripAndExpiry(t *testing.T) {
	repo, mr := newDraftRepo(t)
	ctx := context.Background()

	draft := repository.GradingDraft{
		ApplicationID: "app-1",
		GraderID:      "hm-1",
		Submission:    models.Submission{ApplicationID: "app-1", Status: models.SubmissionStatusCompleted},
		Draft: grading.Draft{
			Answers:     []grading.GradedAnswer{{QuestionID: "Q1", ManualScore: 3, Notes: "ok"}},
			GraderNotes: "start",
		},
		OpenedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, draft, time.Hour))
	require.True(t, mr.Exists("orbit:grading:draft:app-1:hm-1"))

	loaded, err := repo.Get(ctx, "app-1", "hm-1")
	require.NoError(t, err)
	require.Equal(t, draft.Draft, loaded.Draft)
	require.Equal(t, "app-1", loaded.Submission.ApplicationID)

	_, err = repo.Get(ctx, "app-1", "someone-else")
	require.ErrorIs(t, err, repository.ErrDraftNotFound)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "app-1", "hm-1")
	require.ErrorIs(t, err, repository.ErrDraftNotFound)
}

func TestDraftRepositoryDelete(t *testing.T) {
	repo, _ := newDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, repository.GradingDraft{ApplicationID: "app-2", GraderID: "hm-1"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "app-2", "hm-1"))
	_, err := repo.Get(ctx, "app-2", "hm-1")
	require.ErrorIs(t, err, repository.ErrDraftNotFound)

	require.NoError(t, repo.Delete(ctx, "missing", "hm-1"), "deleting a missing draft is not an error")
	require.Error(t, repo.Save(ctx, repository.GradingDraft{ApplicationID: "app-3"}, time.Minute))
}
