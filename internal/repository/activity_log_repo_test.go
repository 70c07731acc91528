package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

func setupTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func TestActivityLogRepositoryFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t, &models.ActivityLog{})
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	entries := []models.ActivityLog{
		{ActorID: "hm-1", ActorRole: "hiring_manager", Action: "submission.graded", EntityType: "application", EntityID: "app-1", CreatedAt: base},
		{ActorID: "hm-1", ActorRole: "hiring_manager", Action: "job.created", EntityType: "job", EntityID: "job-1", CreatedAt: base.Add(time.Minute)},
		{ActorID: "pm-2", ActorRole: "product_manager", Action: "applicant.status_changed", EntityType: "counsellor", EntityID: "c-1", Metadata: datatypes.JSONMap{"status": "hired"}, CreatedAt: base.Add(2 * time.Minute)},
		{ActorID: "hm-1", ActorRole: "hiring_manager", Action: "submission.graded", EntityType: "application", EntityID: "app-2", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	graded, total, err := repo.List(ctx, ActivityLogFilter{Action: "submission.graded"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "app-2", graded[0].EntityID, "newest entries come first")

	byActor, total, err := repo.List(ctx, ActivityLogFilter{ActorID: "hm-1", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, byActor, 1)
	require.Equal(t, "app-1", byActor[0].EntityID)

	byEntity, _, err := repo.List(ctx, ActivityLogFilter{EntityType: "counsellor", EntityID: "c-1"})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	require.Equal(t, "hired", byEntity[0].Metadata["status"])

	since := base.Add(90 * time.Second)
	recent, total, err := repo.List(ctx, ActivityLogFilter{Since: &since})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, recent, 2)
}
