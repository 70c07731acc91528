package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
)

func TestActivityFeedServiceCachesWindow(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	repo := &memoryActivityRepo{entries: []models.ActivityLog{
		{ID: 1, ActorID: "hm-1", ActorRole: "hiring_manager", Action: "submission.graded", EntityType: "application", EntityID: "app-1", CreatedAt: time.Now()},
	}}
	svc := NewActivityFeedService(repo, redisClient, time.Minute, testLogger())

	first, err := svc.Recent(context.Background(), dto.ActivityFeedRequest{PageSize: 10})
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Items, 1)
	require.Equal(t, int64(1), first.Pagination.TotalItems)

	repo.entries = nil

	cached, err := svc.Recent(context.Background(), dto.ActivityFeedRequest{PageSize: 10})
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Len(t, cached.Items, 1)
	require.Equal(t, "app-1", cached.Items[0].EntityID)
}

func TestActivityFeedServiceNormalisesFilter(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityFeedService(repo, nil, time.Minute, testLogger())
	fixed := time.Date(2026, 3, 14, 10, 30, 20, 0, time.UTC)
	svc.(*activityFeedService).now = func() time.Time { return fixed }

	resp, err := svc.Recent(context.Background(), dto.ActivityFeedRequest{
		Page:       0,
		PageSize:   500,
		Action:     " Job.Created ",
		EntityType: "JOB",
	})
	require.NoError(t, err)
	require.False(t, resp.CacheHit)

	filter := repo.lastFilter
	require.Equal(t, 1, filter.Page)
	require.Equal(t, 100, filter.PageSize)
	require.Equal(t, "job.created", filter.Action)
	require.Equal(t, "job", filter.EntityType)
	require.NotNil(t, filter.Since)
	require.Equal(t, time.Date(2026, 3, 13, 10, 30, 0, 0, time.UTC), *filter.Since)
	require.Equal(t, *filter.Since, resp.Since)
}

func TestActivityFeedServiceSkipsCacheOnRepositoryError(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	repo := &failingListRepo{err: errors.New("database down")}
	svc := NewActivityFeedService(repo, redisClient, time.Minute, testLogger())

	_, err := svc.Recent(context.Background(), dto.ActivityFeedRequest{})
	require.Error(t, err)
	require.Empty(t, server.Keys())
}

type failingListRepo struct {
	memoryActivityRepo
	err error
}

func (r *failingListRepo) List(ctx context.Context, _ repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return nil, 0, r.err
}
