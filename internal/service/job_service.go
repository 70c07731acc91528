package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/backend"
	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
)

const jobCachePrefix = "orbit:jobs:v1:"

var (
	// ErrInvalidPayRange indicates a minimum pay above the maximum.
	ErrInvalidPayRange = errors.New("minimum pay cannot exceed maximum pay")
	// ErrJobContentEmpty indicates required text that was empty after sanitisation.
	ErrJobContentEmpty = errors.New("job title and description must contain text")
)

// JobGateway is the slice of the backend used for job management.
type JobGateway interface {
	ListJobs(ctx context.Context, token string) ([]models.Job, error)
	CreateJob(ctx context.Context, token string, input backend.JobInput) (models.Job, error)
	DeleteJob(ctx context.Context, token, jobID string) (string, error)
	JobApplicants(ctx context.Context, token, jobID string) (models.JobWithApplicants, error)
}

// JobService lists, publishes and removes job postings.
type JobService interface {
	List(ctx context.Context, actor ActivityActor) (dto.JobListResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.JobCreateRequest) (models.Job, error)
	Delete(ctx context.Context, actor ActivityActor, jobID string) (string, error)
	Applicants(ctx context.Context, actor ActivityActor, jobID string) (models.JobWithApplicants, error)
}

type jobService struct {
	gateway   JobGateway
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	rich      *bluemonday.Policy
	activity  ActivityRecorder
	events    EventPublisher
	logger    zerolog.Logger
}

// NewJobService constructs the job service. The job list is cached per user for ttl.
func NewJobService(gateway JobGateway, cache *redis.Client, ttl time.Duration, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) JobService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &jobService{
		gateway:   gateway,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		rich:      bluemonday.UGCPolicy(),
		activity:  activity,
		events:    events,
		logger:    logger.With().Str("component", "job_service").Logger(),
	}
}

func (s *jobService) List(ctx context.Context, actor ActivityActor) (dto.JobListResponse, error) {
	cacheKey := s.cacheKey(actor)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var jobs []models.Job
			if err := json.Unmarshal([]byte(cached), &jobs); err == nil {
				observability.CacheLookups().WithLabelValues("jobs", "hit").Inc()
				return dto.JobListResponse{Items: jobs, CacheHit: true}, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read job cache")
		}
	}

	jobs, err := s.gateway.ListJobs(ctx, actor.Token)
	if err != nil {
		return dto.JobListResponse{}, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	if cacheKey != "" {
		observability.CacheLookups().WithLabelValues("jobs", "miss").Inc()
		if payload, err := json.Marshal(jobs); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write job cache")
			}
		}
	}

	return dto.JobListResponse{Items: jobs, CacheHit: false}, nil
}

func (s *jobService) Create(ctx context.Context, actor ActivityActor, req dto.JobCreateRequest) (models.Job, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Job{}, err
	}
	if req.MinPay != nil && req.MaxPay != nil && *req.MinPay > *req.MaxPay {
		return models.Job{}, ErrInvalidPayRange
	}

	input := backend.JobInput{
		Title:               s.clean(req.Title),
		Domain:              s.clean(req.Domain),
		Description:         s.clean(req.Description),
		DetailedDescription: strings.TrimSpace(s.rich.Sanitize(req.DetailedDescription)),
		Skills:              s.cleanList(req.Skills),
		Location:            req.Location,
		MinPay:              req.MinPay,
		MaxPay:              req.MaxPay,
		JobType:             req.JobType,
		WhoCanApply:         s.clean(req.WhoCanApply),
	}
	if input.Title == "" || input.Description == "" {
		return models.Job{}, ErrJobContentEmpty
	}

	job, err := s.gateway.CreateJob(ctx, actor.Token, input)
	if err != nil {
		return models.Job{}, err
	}

	s.invalidate(ctx)
	track(ctx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "job.created",
		EntityType: "job",
		EntityID:   job.ID,
		Metadata:   map[string]interface{}{"title": input.Title, "job_type": string(input.JobType)},
	})
	return job, nil
}

func (s *jobService) Delete(ctx context.Context, actor ActivityActor, jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", ErrJobIDRequired
	}

	message, err := s.gateway.DeleteJob(ctx, actor.Token, jobID)
	if err != nil {
		return "", err
	}

	s.invalidate(ctx)
	track(ctx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "job.deleted",
		EntityType: "job",
		EntityID:   jobID,
	})
	return message, nil
}

func (s *jobService) Applicants(ctx context.Context, actor ActivityActor, jobID string) (models.JobWithApplicants, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return models.JobWithApplicants{}, ErrJobIDRequired
	}
	result, err := s.gateway.JobApplicants(ctx, actor.Token, jobID)
	if err != nil {
		return models.JobWithApplicants{}, err
	}
	if result.Applicants == nil {
		result.Applicants = []models.JobApplication{}
	}
	return result, nil
}

func (s *jobService) cacheKey(actor ActivityActor) string {
	if s.cache == nil || actor.ID == "" {
		return ""
	}
	return jobCachePrefix + actor.ID
}

// invalidate drops every user's cached list since job visibility is shared.
func (s *jobService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, jobCachePrefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan job cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Int("keys", len(keys)).Msg("failed to invalidate job cache")
	}
}

func (s *jobService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *jobService) cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if v := s.clean(value); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
