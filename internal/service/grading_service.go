package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
)

var (
	// ErrGradingSessionNotFound indicates the grader has no open draft for the application.
	ErrGradingSessionNotFound = errors.New("no grading session is open for this application")
	// ErrInvalidScore indicates a score value that is neither a JSON number nor
	// text that parses as one.
	ErrInvalidScore = errors.New("score must be a number")
	// ErrEmptyAnswerUpdate indicates an answer update that changes nothing.
	ErrEmptyAnswerUpdate = errors.New("provide a manualScore or notes to update")
)

// SubmissionGateway is the slice of the backend the grading flow depends on.
type SubmissionGateway interface {
	GetSubmission(ctx context.Context, token, applicationID string) (models.Submission, error)
	GradeSubmission(ctx context.Context, token, applicationID string, payload grading.Payload) (string, error)
}

// GradingService drives a grader through one submission: open a draft, edit
// scores and notes, then submit the final grade to the backend.
type GradingService interface {
	Open(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSessionResponse, error)
	Get(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSessionResponse, error)
	SetScore(ctx context.Context, actor ActivityActor, applicationID, questionID string, value float64) (dto.GradingSessionResponse, error)
	SetNotes(ctx context.Context, actor ActivityActor, applicationID, questionID, notes string) (dto.GradingSessionResponse, error)
	UpdateAnswer(ctx context.Context, actor ActivityActor, applicationID, questionID string, req dto.GradingAnswerUpdateRequest) (dto.GradingSessionResponse, error)
	SetGraderNotes(ctx context.Context, actor ActivityActor, applicationID, notes string) (dto.GradingSessionResponse, error)
	Discard(ctx context.Context, actor ActivityActor, applicationID string) error
	Submit(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSubmitResponse, error)
}

type gradingService struct {
	gateway  SubmissionGateway
	drafts   repository.DraftRepository
	ttl      time.Duration
	activity ActivityRecorder
	events   EventPublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewGradingService constructs the grading service. Drafts expire after ttl of inactivity.
func NewGradingService(gateway SubmissionGateway, drafts repository.DraftRepository, ttl time.Duration, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) GradingService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &gradingService{
		gateway:  gateway,
		drafts:   drafts,
		ttl:      ttl,
		activity: activity,
		events:   events,
		logger:   logger.With().Str("component", "grading_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/orbit-admin-api/internal/service/grading"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *gradingService) Open(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSessionResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	spanCtx, span := s.tracer.Start(ctx, "grading.open", trace.WithAttributes(attribute.String("grading.application_id", applicationID)))
	defer span.End()

	submission, err := s.gateway.GetSubmission(spanCtx, actor.Token, applicationID)
	if err != nil {
		span.RecordError(err)
		return dto.GradingSessionResponse{}, err
	}

	source := "fresh"
	if _, err := s.drafts.Get(spanCtx, applicationID, actor.ID); err == nil {
		source = "replaced"
	}

	draft := grading.Initialize(submission)
	if dropped := len(draft.DroppedQuestionIDs); dropped > 0 {
		observability.GradingDroppedAnswers().Add(float64(dropped))
		s.logger.Warn().
			Str("application_id", applicationID).
			Strs("question_ids", draft.DroppedQuestionIDs).
			Msg("submission answers reference unknown questions")
	}

	now := s.now()
	stored := repository.GradingDraft{
		ApplicationID: applicationID,
		GraderID:      actor.ID,
		Submission:    submission,
		Draft:         draft,
		OpenedAt:      now,
		UpdatedAt:     now,
	}
	if err := s.drafts.Save(spanCtx, stored, s.ttl); err != nil {
		span.RecordError(err)
		return dto.GradingSessionResponse{}, fmt.Errorf("store grading draft: %w", err)
	}

	observability.GradingDraftsOpened().WithLabelValues(source).Inc()
	span.SetAttributes(attribute.Int("grading.answers", len(draft.Answers)))
	return buildSessionView(stored), nil
}

func (s *gradingService) Get(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSessionResponse, error) {
	stored, err := s.load(ctx, actor, applicationID)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}
	return buildSessionView(stored), nil
}

func (s *gradingService) SetScore(ctx context.Context, actor ActivityActor, applicationID, questionID string, value float64) (dto.GradingSessionResponse, error) {
	return s.mutate(ctx, actor, applicationID, func(r *grading.Reconciler, draft grading.Draft) (grading.Draft, error) {
		return r.SetScore(draft, questionID, value)
	})
}

func (s *gradingService) SetNotes(ctx context.Context, actor ActivityActor, applicationID, questionID, notes string) (dto.GradingSessionResponse, error) {
	return s.mutate(ctx, actor, applicationID, func(r *grading.Reconciler, draft grading.Draft) (grading.Draft, error) {
		return r.SetNotes(draft, questionID, notes)
	})
}

// UpdateAnswer applies a score and notes edit together; neither is applied when
// either is rejected.
func (s *gradingService) UpdateAnswer(ctx context.Context, actor ActivityActor, applicationID, questionID string, req dto.GradingAnswerUpdateRequest) (dto.GradingSessionResponse, error) {
	score, hasScore, err := scoreValue(req.ManualScore)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}
	if !hasScore && req.Notes == nil {
		return dto.GradingSessionResponse{}, ErrEmptyAnswerUpdate
	}

	return s.mutate(ctx, actor, applicationID, func(r *grading.Reconciler, draft grading.Draft) (grading.Draft, error) {
		next := draft
		var err error
		if hasScore {
			if next, err = r.SetScore(next, questionID, score); err != nil {
				return draft, err
			}
		}
		if req.Notes != nil {
			if next, err = r.SetNotes(next, questionID, *req.Notes); err != nil {
				return draft, err
			}
		}
		return next, nil
	})
}

func (s *gradingService) SetGraderNotes(ctx context.Context, actor ActivityActor, applicationID, notes string) (dto.GradingSessionResponse, error) {
	return s.mutate(ctx, actor, applicationID, func(_ *grading.Reconciler, draft grading.Draft) (grading.Draft, error) {
		draft.GraderNotes = notes
		return draft, nil
	})
}

func (s *gradingService) Discard(ctx context.Context, actor ActivityActor, applicationID string) error {
	if _, err := s.load(ctx, actor, applicationID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, strings.TrimSpace(applicationID), actor.ID)
}

func (s *gradingService) Submit(ctx context.Context, actor ActivityActor, applicationID string) (dto.GradingSubmitResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	spanCtx, span := s.tracer.Start(ctx, "grading.submit", trace.WithAttributes(attribute.String("grading.application_id", applicationID)))
	defer span.End()

	stored, err := s.load(spanCtx, actor, applicationID)
	if err != nil {
		return dto.GradingSubmitResponse{}, err
	}

	reconciler := grading.New(stored.Submission.Assignment)
	if err := reconciler.ValidateForSubmit(stored.Draft); err != nil {
		observability.GradingValidationFailures().Inc()
		observability.GradingSubmissions().WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradingSubmitResponse{}, err
	}

	payload := grading.BuildPayload(stored.Draft, stored.Draft.GraderNotes)
	message, err := s.gateway.GradeSubmission(spanCtx, actor.Token, applicationID, payload)
	if err != nil {
		observability.GradingSubmissions().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream_failed")
		s.logger.Error().Err(err).Str("application_id", applicationID).Msg("grade submission rejected, draft kept")
		return dto.GradingSubmitResponse{}, err
	}

	if err := s.drafts.Delete(spanCtx, applicationID, actor.ID); err != nil {
		s.logger.Warn().Err(err).Str("application_id", applicationID).Msg("failed to clear submitted grading draft")
	}

	total := grading.Total(stored.Draft)
	observability.GradingSubmissions().WithLabelValues("graded").Inc()
	track(spanCtx, s.activity, s.events, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.graded",
		EntityType: "application",
		EntityID:   applicationID,
		Metadata: map[string]interface{}{
			"total_score":   total,
			"max_score":     stored.Submission.Assignment.MaxScore(),
			"passing_score": stored.Submission.Assignment.PassingScore,
			"answers":       len(payload.GradedAnswers),
		},
	})

	return dto.GradingSubmitResponse{
		ApplicationID: applicationID,
		TotalScore:    total,
		Payload:       payload,
		Message:       message,
	}, nil
}

func (s *gradingService) load(ctx context.Context, actor ActivityActor, applicationID string) (repository.GradingDraft, error) {
	stored, err := s.drafts.Get(ctx, strings.TrimSpace(applicationID), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return repository.GradingDraft{}, ErrGradingSessionNotFound
		}
		return repository.GradingDraft{}, err
	}
	return stored, nil
}

func (s *gradingService) mutate(ctx context.Context, actor ActivityActor, applicationID string, edit func(*grading.Reconciler, grading.Draft) (grading.Draft, error)) (dto.GradingSessionResponse, error) {
	stored, err := s.load(ctx, actor, applicationID)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}

	next, err := edit(grading.New(stored.Submission.Assignment), stored.Draft)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}

	stored.Draft = next
	stored.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, stored, s.ttl); err != nil {
		return dto.GradingSessionResponse{}, fmt.Errorf("store grading draft: %w", err)
	}
	return buildSessionView(stored), nil
}

// scoreValue accepts the shapes a number field can produce: a JSON number or
// numeric text typed by the grader. Anything else is ErrInvalidScore.
func scoreValue(raw interface{}) (float64, bool, error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case string:
		score, err := grading.ParseScore(v)
		if err != nil {
			return 0, false, ErrInvalidScore
		}
		return float64(score), true, nil
	default:
		return 0, false, ErrInvalidScore
	}
}

func buildSessionView(stored repository.GradingDraft) dto.GradingSessionResponse {
	submission := stored.Submission
	reconciler := grading.New(submission.Assignment)

	sectionTitles := make(map[string]string)
	for _, section := range submission.Assignment.Sections {
		for _, question := range section.Questions {
			if _, seen := sectionTitles[question.ID]; !seen {
				sectionTitles[question.ID] = section.Title
			}
		}
	}
	originals := make(map[string]models.Answer, len(submission.Answers))
	for _, answer := range submission.Answers {
		if _, seen := originals[answer.QuestionID]; !seen {
			originals[answer.QuestionID] = answer
		}
	}

	answers := make([]dto.GradingAnswerView, 0, len(stored.Draft.Answers))
	for _, graded := range stored.Draft.Answers {
		ref, _ := reconciler.Lookup(graded.QuestionID)
		original := originals[graded.QuestionID]
		view := dto.GradingAnswerView{
			QuestionID:       graded.QuestionID,
			Prompt:           ref.Question.Prompt,
			SectionTitle:     sectionTitles[graded.QuestionID],
			SectionType:      ref.SectionType,
			MaxPoints:        ref.PointsPerQuestion,
			Locked:           reconciler.Locked(graded.QuestionID),
			Answer:           original.Answer,
			ModelAnswer:      ref.Question.ModelAnswer,
			AIJustification:  original.AIJustification,
			AISuggestedScore: original.AISuggestedScore,
			ManualScore:      graded.ManualScore,
			Notes:            graded.Notes,
		}
		if view.Locked {
			view.CorrectAnswer = ref.Question.CorrectAnswer
		}
		answers = append(answers, view)
	}

	dropped := stored.Draft.DroppedQuestionIDs
	if dropped == nil {
		dropped = []string{}
	}

	return dto.GradingSessionResponse{
		ApplicationID:      stored.ApplicationID,
		SubmissionID:       submission.ID,
		Status:             submission.Status,
		AssignmentTitle:    submission.Assignment.Title,
		PassingScore:       submission.Assignment.PassingScore,
		MaxScore:           submission.Assignment.MaxScore(),
		TotalScore:         grading.Total(stored.Draft),
		AlreadyGraded:      submission.IsGraded(),
		Answers:            answers,
		GraderNotes:        stored.Draft.GraderNotes,
		DroppedQuestionIDs: dropped,
		OpenedAt:           stored.OpenedAt,
		UpdatedAt:          stored.UpdatedAt,
	}
}
