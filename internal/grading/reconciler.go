// Package grading turns a fetched submission into an editable grading draft and
// back into the payload the backend expects. Everything here is pure: no I/O and
// no shared state, so a draft can be rebuilt from the same submission at any time.
package grading

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// maxScore caps coerced scores so they always fit the backend's 32-bit integer fields.
const maxScore = math.MaxInt32

// ErrScoreLocked is returned when a caller tries to edit a multiple-choice score.
var ErrScoreLocked = errors.New("multiple-choice scores are derived from correctness and cannot be edited")

// ErrQuestionNotInDraft is returned when an edit targets a question the draft does not hold.
var ErrQuestionNotInDraft = errors.New("question is not part of the grading draft")

// ErrNotNumeric is returned by ParseScore for text that is not a number.
var ErrNotNumeric = errors.New("score must be a number")

// GradedAnswer is the per-question grade a grader can edit before submitting.
// Seeded scores are kept as stored upstream, so a draft may hold values that
// ValidateForSubmit rejects until the grader corrects them.
type GradedAnswer struct {
	QuestionID  string  `json:"questionId"`
	ManualScore float64 `json:"manualScore"`
	Notes       string  `json:"notes"`
}

// ScoredAnswer is one graded answer as sent to the backend.
type ScoredAnswer struct {
	QuestionID  string `json:"questionId"`
	ManualScore int    `json:"manualScore"`
	Notes       string `json:"notes"`
}

// Draft is the in-progress grading record for one submission.
type Draft struct {
	Answers            []GradedAnswer `json:"gradedAnswers"`
	GraderNotes        string         `json:"graderNotes"`
	DroppedQuestionIDs []string       `json:"droppedQuestionIds,omitempty"`
}

// Payload is the body sent to the backend when a grade is submitted.
type Payload struct {
	GradedAnswers []ScoredAnswer `json:"gradedAnswers"`
	GraderNotes   string         `json:"graderNotes"`
}

// QuestionRef locates a question inside its assignment.
type QuestionRef struct {
	Question          models.Question
	SectionType       models.SectionType
	PointsPerQuestion int
}

// Reconciler applies the scoring rules of one assignment.
type Reconciler struct {
	index map[string]QuestionRef
}

// New indexes the assignment's questions by id. When an id repeats, the first
// occurrence wins.
func New(assignment models.Assignment) *Reconciler {
	index := make(map[string]QuestionRef, assignment.QuestionCount())
	for _, section := range assignment.Sections {
		for _, question := range section.Questions {
			if _, exists := index[question.ID]; exists {
				continue
			}
			index[question.ID] = QuestionRef{
				Question:          question,
				SectionType:       section.Type,
				PointsPerQuestion: section.PointsPerQuestion,
			}
		}
	}
	return &Reconciler{index: index}
}

// Lookup resolves a question id.
func (r *Reconciler) Lookup(questionID string) (QuestionRef, bool) {
	ref, ok := r.index[questionID]
	return ref, ok
}

// Locked reports whether the question's score is fixed by correctness.
func (r *Reconciler) Locked(questionID string) bool {
	ref, ok := r.index[questionID]
	return ok && ref.SectionType.IsMultipleChoice()
}

// Initialize builds a fresh draft from the submission's answers. Answers whose
// question cannot be resolved are left out and reported in DroppedQuestionIDs.
func (r *Reconciler) Initialize(submission models.Submission) Draft {
	draft := Draft{
		Answers:     make([]GradedAnswer, 0, len(submission.Answers)),
		GraderNotes: submission.GraderNotes,
	}

	for _, answer := range submission.Answers {
		ref, ok := r.index[answer.QuestionID]
		if !ok {
			draft.DroppedQuestionIDs = append(draft.DroppedQuestionIDs, answer.QuestionID)
			continue
		}
		draft.Answers = append(draft.Answers, GradedAnswer{
			QuestionID:  answer.QuestionID,
			ManualScore: SeedScore(ref, answer),
			Notes:       answer.Notes,
		})
	}

	return draft
}

// Initialize is shorthand for New(submission.Assignment).Initialize(submission).
func Initialize(submission models.Submission) Draft {
	return New(submission.Assignment).Initialize(submission)
}

// SeedScore returns the starting score for an answer. Multiple-choice answers
// earn the section's points only when a non-blank answer matches the correct
// key; other answers start from the stored manual score, then the AI
// suggestion, then zero. Stored values are returned unchanged.
func SeedScore(ref QuestionRef, answer models.Answer) float64 {
	if ref.SectionType.IsMultipleChoice() {
		if strings.TrimSpace(answer.Answer) != "" && answer.Answer == ref.Question.CorrectAnswer {
			return float64(clampInt(ref.PointsPerQuestion))
		}
		return 0
	}

	switch {
	case answer.ManualScore != nil:
		return *answer.ManualScore
	case answer.AISuggestedScore != nil:
		return *answer.AISuggestedScore
	default:
		return 0
	}
}

// SetScore returns a copy of the draft with the question's score replaced on
// every entry for that question. Multiple-choice questions are rejected with
// ErrScoreLocked.
func (r *Reconciler) SetScore(draft Draft, questionID string, value float64) (Draft, error) {
	if r.Locked(questionID) {
		return draft, ErrScoreLocked
	}

	positions := positionsOf(draft.Answers, questionID)
	if len(positions) == 0 {
		return draft, ErrQuestionNotInDraft
	}

	next := draft.clone()
	score := float64(CoerceScore(value))
	for _, i := range positions {
		next.Answers[i].ManualScore = score
	}
	return next, nil
}

// SetNotes returns a copy of the draft with the question's notes replaced.
func (r *Reconciler) SetNotes(draft Draft, questionID, text string) (Draft, error) {
	positions := positionsOf(draft.Answers, questionID)
	if len(positions) == 0 {
		return draft, ErrQuestionNotInDraft
	}

	next := draft.clone()
	for _, i := range positions {
		next.Answers[i].Notes = text
	}
	return next, nil
}

// ValidateForSubmit fails on the first answer whose score is not a
// non-negative integer. Multiple-choice scores are not re-derived.
func (r *Reconciler) ValidateForSubmit(draft Draft) error {
	for _, answer := range draft.Answers {
		if ValidScore(answer.ManualScore) {
			continue
		}
		prompt := ""
		if ref, ok := r.index[answer.QuestionID]; ok {
			prompt = strings.TrimSpace(ref.Question.Prompt)
		}
		return &ValidationError{
			QuestionID: answer.QuestionID,
			Prompt:     prompt,
			Score:      answer.ManualScore,
		}
	}
	return nil
}

// BuildPayload converts the draft into the backend grading body. Scores are
// emitted as integers; callers run ValidateForSubmit first.
func BuildPayload(draft Draft, graderNotes string) Payload {
	answers := make([]ScoredAnswer, 0, len(draft.Answers))
	for _, answer := range draft.Answers {
		answers = append(answers, ScoredAnswer{
			QuestionID:  answer.QuestionID,
			ManualScore: CoerceScore(answer.ManualScore),
			Notes:       answer.Notes,
		})
	}
	return Payload{
		GradedAnswers: answers,
		GraderNotes:   graderNotes,
	}
}

// Total sums the draft's scores as BuildPayload would send them.
func Total(draft Draft) int {
	total := 0
	for _, answer := range draft.Answers {
		total += CoerceScore(answer.ManualScore)
	}
	return total
}

// ValidScore reports whether a score can be submitted as is.
func ValidScore(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > maxScore {
		return false
	}
	return value == math.Trunc(value)
}

// CoerceScore turns any numeric input into a non-negative integer score.
// Fractions are floored; NaN, infinities and negatives become zero.
func CoerceScore(value float64) int {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	floored := math.Floor(value)
	if floored > maxScore {
		return maxScore
	}
	return int(floored)
}

// ParseScore coerces numeric text typed into a score field. Text that is not a
// number is rejected with ErrNotNumeric; numbers out of float range coerce to zero.
func ParseScore(raw string) (int, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, ErrNotNumeric
	}
	return CoerceScore(value), nil
}

func clampInt(value int) int {
	if value < 0 {
		return 0
	}
	if value > maxScore {
		return maxScore
	}
	return value
}

func positionsOf(answers []GradedAnswer, questionID string) []int {
	var positions []int
	for i, answer := range answers {
		if answer.QuestionID == questionID {
			positions = append(positions, i)
		}
	}
	return positions
}

func (d Draft) clone() Draft {
	answers := make([]GradedAnswer, len(d.Answers))
	copy(answers, d.Answers)
	var dropped []string
	if d.DroppedQuestionIDs != nil {
		dropped = append([]string(nil), d.DroppedQuestionIDs...)
	}
	return Draft{
		Answers:            answers,
		GraderNotes:        d.GraderNotes,
		DroppedQuestionIDs: dropped,
	}
}
