package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/orbit-admin-api/internal/assignment"
	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// MaxAssignmentImportBytes bounds the size of an imported assignment document.
const MaxAssignmentImportBytes = 1 << 20

var (
	// ErrImportTooLarge indicates the uploaded document exceeds MaxAssignmentImportBytes.
	ErrImportTooLarge = errors.New("assignment file is too large")
	// ErrImportTypeNotAllowed indicates the upload is not a text document.
	ErrImportTypeNotAllowed = errors.New("assignment import must be a JSON file")
	// ErrJobIDRequired indicates a missing job id path parameter.
	ErrJobIDRequired = errors.New("job id is required")
)

// AssignmentGateway is the slice of the backend used for assignment authoring.
type AssignmentGateway interface {
	GetAssignment(ctx context.Context, token, jobID string) (models.Assignment, bool, error)
	CreateAssignment(ctx context.Context, token, jobID string, a models.Assignment) (models.Assignment, error)
	UpdateAssignment(ctx context.Context, token, jobID string, a models.Assignment) (models.Assignment, error)
}

// AssignmentService manages the assignment attached to a job.
type AssignmentService interface {
	Get(ctx context.Context, actor ActivityActor, jobID string) (dto.AssignmentResponse, error)
	Save(ctx context.Context, actor ActivityActor, jobID string, req dto.AssignmentUpsertRequest) (dto.AssignmentSaveResponse, error)
	Import(ctx context.Context, actor ActivityActor, jobID string, raw []byte) (dto.AssignmentSaveResponse, error)
}

type assignmentService struct {
	gateway   AssignmentGateway
	validator *validator.Validate
	activity  ActivityRecorder
	events    EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAssignmentService constructs the assignment authoring service.
func NewAssignmentService(gateway AssignmentGateway, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		gateway:   gateway,
		validator: validate,
		activity:  activity,
		events:    events,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/orbit-admin-api/internal/service/assignment"),
	}
}

func (s *assignmentService) Get(ctx context.Context, actor ActivityActor, jobID string) (dto.AssignmentResponse, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return dto.AssignmentResponse{}, ErrJobIDRequired
	}

	found, exists, err := s.gateway.GetAssignment(ctx, actor.Token, jobID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !exists {
		// A job without an assignment starts from an empty editor.
		return dto.NewAssignmentResponse(models.Assignment{JobID: jobID, PassingScore: models.DefaultPassingScore}, false), nil
	}
	return dto.NewAssignmentResponse(found, true), nil
}

func (s *assignmentService) Save(ctx context.Context, actor ActivityActor, jobID string, req dto.AssignmentUpsertRequest) (dto.AssignmentSaveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentSaveResponse{}, err
	}
	candidate := req.ToModel(strings.TrimSpace(jobID))
	if err := assignment.Validate(candidate); err != nil {
		return dto.AssignmentSaveResponse{}, err
	}
	return s.store(ctx, actor, candidate, "editor")
}

func (s *assignmentService) Import(ctx context.Context, actor ActivityActor, jobID string, raw []byte) (dto.AssignmentSaveResponse, error) {
	if len(raw) > MaxAssignmentImportBytes {
		return dto.AssignmentSaveResponse{}, ErrImportTooLarge
	}
	if !isTextDocument(raw) {
		return dto.AssignmentSaveResponse{}, ErrImportTypeNotAllowed
	}

	parsed, err := assignment.Parse(raw)
	if err != nil {
		return dto.AssignmentSaveResponse{}, err
	}
	parsed.JobID = strings.TrimSpace(jobID)
	return s.store(ctx, actor, parsed, "import")
}

func (s *assignmentService) store(ctx context.Context, actor ActivityActor, candidate models.Assignment, source string) (dto.AssignmentSaveResponse, error) {
	if candidate.JobID == "" {
		return dto.AssignmentSaveResponse{}, ErrJobIDRequired
	}

	spanCtx, span := s.tracer.Start(ctx, "assignments.save", trace.WithAttributes(
		attribute.String("assignment.job_id", candidate.JobID),
		attribute.String("assignment.source", source),
	))
	defer span.End()

	_, exists, err := s.gateway.GetAssignment(spanCtx, actor.Token, candidate.JobID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentSaveResponse{}, err
	}

	var saved models.Assignment
	if exists {
		saved, err = s.gateway.UpdateAssignment(spanCtx, actor.Token, candidate.JobID, candidate)
	} else {
		saved, err = s.gateway.CreateAssignment(spanCtx, actor.Token, candidate.JobID, candidate)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream_failed")
		return dto.AssignmentSaveResponse{}, err
	}
	if saved.JobID == "" {
		saved.JobID = candidate.JobID
	}

	action := "assignment.updated"
	if !exists {
		action = "assignment.created"
	}
	track(spanCtx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "job",
		EntityID:   candidate.JobID,
		Metadata: map[string]interface{}{
			"source":    source,
			"sections":  len(saved.Sections),
			"questions": saved.QuestionCount(),
		},
	})

	return dto.AssignmentSaveResponse{
		AssignmentResponse: dto.NewAssignmentResponse(saved, true),
		Created:            !exists,
	}, nil
}

// isTextDocument accepts anything mimetype places under text/plain, which
// covers JSON as well as malformed JSON that the parser will report on.
func isTextDocument(raw []byte) bool {
	for mime := mimetype.Detect(raw); mime != nil; mime = mime.Parent() {
		if mime.Is("text/plain") {
			return true
		}
	}
	return false
}
