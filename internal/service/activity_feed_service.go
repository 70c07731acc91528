package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
)

const activityFeedWindow = 24 * time.Hour

// ActivityFeedService serves the dashboard's recent activity panel.
type ActivityFeedService interface {
	Recent(ctx context.Context, req dto.ActivityFeedRequest) (dto.ActivityFeedResponse, error)
}

type activityFeedService struct {
	repo   repository.ActivityLogRepository
	cache  *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewActivityFeedService builds the recent activity feed. A nil cache disables caching.
func NewActivityFeedService(repo repository.ActivityLogRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ActivityFeedService {
	if ttl <= 0 {
		ttl = 45 * time.Second
	}
	return &activityFeedService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "activity_feed_service").Logger(),
	}
}

func (s *activityFeedService) Recent(ctx context.Context, req dto.ActivityFeedRequest) (dto.ActivityFeedResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)
	// The window start is truncated to the cache TTL so that requests inside
	// one TTL share a key.
	since := s.now().Add(-activityFeedWindow).Truncate(s.ttl)

	filter := repository.ActivityLogFilter{
		Page:       page,
		PageSize:   pageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
		Since:      &since,
	}

	key := s.cacheKey(filter)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var response dto.ActivityFeedResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				response.CacheHit = true
				observability.CacheLookups().WithLabelValues("activity_feed", "hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("activity feed cache read failed")
		}
		observability.CacheLookups().WithLabelValues("activity_feed", "miss").Inc()
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityFeedResponse{}, err
	}

	items := make([]dto.AdminActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAdminActivityResponse(entry))
	}

	response := dto.ActivityFeedResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
		Since: since,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write activity feed cache")
			}
		}
	}

	return response, nil
}

func (s *activityFeedService) cacheKey(filter repository.ActivityLogFilter) string {
	return fmt.Sprintf("orbit:activity:recent:v1:%s|%s:%d:%d:%d",
		filter.Action, filter.EntityType, filter.Page, filter.PageSize, filter.Since.Unix())
}
