package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/backend"
	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

var (
	// ErrApplicantIDRequired indicates a missing applicant id path parameter.
	ErrApplicantIDRequired = errors.New("applicant id is required")
	// ErrUnknownApplicantKind indicates a pool other than counsellors or agents.
	ErrUnknownApplicantKind = errors.New("unknown applicant kind")
)

// ApplicantGateway is the slice of the backend used for counsellor and agent review.
type ApplicantGateway interface {
	ListApplicants(ctx context.Context, token string, kind models.ApplicantKind, query backend.ApplicantQuery) (models.ApplicantPage, error)
	SetApplicationStatus(ctx context.Context, token string, kind models.ApplicantKind, id string, status models.ApplicationStatus) (models.Applicant, error)
	SetVerification(ctx context.Context, token string, kind models.ApplicantKind, id string, verified bool) (models.Applicant, error)
	UpdateEmail(ctx context.Context, token string, kind models.ApplicantKind, id, email string) (models.Applicant, error)
	AssignCounsellors(ctx context.Context, token string) (string, error)
}

// ApplicantService reviews counsellor and agent applicants.
type ApplicantService interface {
	List(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, req dto.ApplicantListRequest) (dto.ApplicantListResponse, error)
	SetStatus(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.ApplicationStatusRequest) (models.Applicant, error)
	SetVerification(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.VerificationRequest) (models.Applicant, error)
	UpdateEmail(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.EmailUpdateRequest) (models.Applicant, error)
	AssignCounsellors(ctx context.Context, actor ActivityActor) (string, error)
}

type applicantService struct {
	gateway   ApplicantGateway
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	events    EventPublisher
	logger    zerolog.Logger
}

// NewApplicantService constructs the applicant review service.
func NewApplicantService(gateway ApplicantGateway, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) ApplicantService {
	return &applicantService{
		gateway:   gateway,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		events:    events,
		logger:    logger.With().Str("component", "applicant_service").Logger(),
	}
}

func (s *applicantService) List(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, req dto.ApplicantListRequest) (dto.ApplicantListResponse, error) {
	if err := checkKind(kind); err != nil {
		return dto.ApplicantListResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicantListResponse{}, err
	}

	query := backend.ApplicantQuery{
		Page:   req.Page,
		Limit:  req.Limit,
		Search: strings.TrimSpace(s.sanitizer.Sanitize(req.Search)),
	}
	if query.Page <= 0 {
		query.Page = dto.DefaultApplicantPage
	}
	if query.Limit <= 0 {
		query.Limit = dto.DefaultApplicantLimit
	}
	if query.Limit > dto.MaxApplicantLimit {
		query.Limit = dto.MaxApplicantLimit
	}

	page, err := s.gateway.ListApplicants(ctx, actor.Token, kind, query)
	if err != nil {
		return dto.ApplicantListResponse{}, err
	}

	items := page.Data
	if items == nil {
		items = []models.Applicant{}
	}
	pagination := page.Pagination
	if pagination.Page == 0 {
		pagination.Page = query.Page
	}
	if pagination.Limit == 0 {
		pagination.Limit = query.Limit
	}
	return dto.ApplicantListResponse{Items: items, Pagination: pagination}, nil
}

func (s *applicantService) SetStatus(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.ApplicationStatusRequest) (models.Applicant, error) {
	id, err := s.prepare(kind, id, req)
	if err != nil {
		return models.Applicant{}, err
	}

	applicant, err := s.gateway.SetApplicationStatus(ctx, actor.Token, kind, id, req.ApplicationStatus)
	if err != nil {
		return models.Applicant{}, err
	}

	s.track(ctx, actor, kind, id, "applicant.status_changed", map[string]interface{}{
		"application_status": string(req.ApplicationStatus),
	})
	return applicant, nil
}

func (s *applicantService) SetVerification(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.VerificationRequest) (models.Applicant, error) {
	id, err := s.prepare(kind, id, req)
	if err != nil {
		return models.Applicant{}, err
	}

	applicant, err := s.gateway.SetVerification(ctx, actor.Token, kind, id, *req.IsVerified)
	if err != nil {
		return models.Applicant{}, err
	}

	s.track(ctx, actor, kind, id, "applicant.verification_changed", map[string]interface{}{
		"is_verified": *req.IsVerified,
	})
	return applicant, nil
}

func (s *applicantService) UpdateEmail(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id string, req dto.EmailUpdateRequest) (models.Applicant, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	id, err := s.prepare(kind, id, req)
	if err != nil {
		return models.Applicant{}, err
	}

	applicant, err := s.gateway.UpdateEmail(ctx, actor.Token, kind, id, req.Email)
	if err != nil {
		return models.Applicant{}, err
	}

	// The address itself is masked by the activity recorder.
	s.track(ctx, actor, kind, id, "applicant.email_updated", map[string]interface{}{
		"email": req.Email,
	})
	return applicant, nil
}

func (s *applicantService) AssignCounsellors(ctx context.Context, actor ActivityActor) (string, error) {
	message, err := s.gateway.AssignCounsellors(ctx, actor.Token)
	if err != nil {
		return "", err
	}

	track(ctx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "agents.counsellors_assigned",
		EntityType: string(models.ApplicantKindAgent),
		Metadata:   map[string]interface{}{"message": message},
	})
	return message, nil
}

func (s *applicantService) prepare(kind models.ApplicantKind, id string, req interface{}) (string, error) {
	if err := checkKind(kind); err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrApplicantIDRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}
	return id, nil
}

func (s *applicantService) track(ctx context.Context, actor ActivityActor, kind models.ApplicantKind, id, action string, metadata map[string]interface{}) {
	track(ctx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: string(kind),
		EntityID:   id,
		Metadata:   metadata,
	})
}

func checkKind(kind models.ApplicantKind) error {
	switch kind {
	case models.ApplicantKindCounsellor, models.ApplicantKindAgent:
		return nil
	default:
		return ErrUnknownApplicantKind
	}
}
