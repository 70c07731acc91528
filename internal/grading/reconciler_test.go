package grading_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

func sampleAssignment() models.Assignment {
	return models.Assignment{
		Title:        "Counsellor screening",
		PassingScore: 70,
		Sections: []models.Section{
			{
				Title:             "Basics",
				Type:              models.SectionTypeMultipleChoice,
				PointsPerQuestion: 5,
				Questions: []models.Question{
					{
						ID:            "Q1",
						Prompt:        "Pick B",
						Options:       []models.Option{{Key: "A", Text: "no"}, {Key: "B", Text: "yes"}},
						CorrectAnswer: "B",
					},
				},
			},
			{
				Title:             "Writing",
				Type:              models.SectionTypeShortAnswer,
				PointsPerQuestion: 10,
				Questions: []models.Question{
					{ID: "Q2", Prompt: "Describe a difficult student conversation"},
					{ID: "Q3", Prompt: "Why this role?"},
				},
			},
		},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestInitializeScoresMultipleChoiceByCorrectness(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers:    []models.Answer{{QuestionID: "Q1", Answer: "B"}},
	}

	draft := grading.Initialize(submission)
	require.Equal(t, []grading.GradedAnswer{{QuestionID: "Q1", ManualScore: 5, Notes: ""}}, draft.Answers)

	submission.Answers[0].Answer = "A"
	draft = grading.Initialize(submission)
	require.Zero(t, draft.Answers[0].ManualScore)
}

func TestInitializeDoesNotRewardBlankMultipleChoiceAnswers(t *testing.T) {
	assignment := sampleAssignment()
	assignment.Sections[0].Questions[0].CorrectAnswer = ""
	submission := models.Submission{
		Assignment: assignment,
		Answers:    []models.Answer{{QuestionID: "Q1", Answer: ""}, {QuestionID: "Q1", Answer: "  "}},
	}

	draft := grading.Initialize(submission)
	require.Len(t, draft.Answers, 2)
	require.Zero(t, draft.Answers[0].ManualScore)
	require.Zero(t, draft.Answers[1].ManualScore)
}

func TestInitializeIgnoresStoredScoreForMultipleChoice(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers:    []models.Answer{{QuestionID: "Q1", Answer: "A", ManualScore: floatPtr(5)}},
	}

	draft := grading.Initialize(submission)
	require.Zero(t, draft.Answers[0].ManualScore)
}

func TestInitializeSeedsFreeResponseScores(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q2", Answer: "text", AISuggestedScore: floatPtr(7)},
			{QuestionID: "Q3", Answer: "text", ManualScore: floatPtr(3), AISuggestedScore: floatPtr(7), Notes: "short"},
		},
		GraderNotes: "first pass",
	}

	draft := grading.Initialize(submission)
	require.Equal(t, []grading.GradedAnswer{
		{QuestionID: "Q2", ManualScore: 7, Notes: ""},
		{QuestionID: "Q3", ManualScore: 3, Notes: "short"},
	}, draft.Answers)
	require.Equal(t, "first pass", draft.GraderNotes)
}

func TestInitializeDefaultsToZeroWithoutHints(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers:    []models.Answer{{QuestionID: "Q2", Answer: "text"}},
	}

	draft := grading.Initialize(submission)
	require.Zero(t, draft.Answers[0].ManualScore)
	require.Empty(t, draft.GraderNotes)
}

func TestInitializeDropsUnresolvedAnswers(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q9", Answer: "orphan"},
			{QuestionID: "Q2", Answer: "kept", AISuggestedScore: floatPtr(4)},
		},
	}

	draft := grading.Initialize(submission)
	require.Len(t, draft.Answers, 1)
	require.Equal(t, "Q2", draft.Answers[0].QuestionID)
	require.Equal(t, []string{"Q9"}, draft.DroppedQuestionIDs)
}

func TestInitializeKeepsAnswerOrder(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q3"},
			{QuestionID: "Q1", Answer: "B"},
			{QuestionID: "Q2"},
		},
	}

	draft := grading.Initialize(submission)
	ids := make([]string, 0, len(draft.Answers))
	for _, answer := range draft.Answers {
		ids = append(ids, answer.QuestionID)
	}
	require.Equal(t, []string{"Q3", "Q1", "Q2"}, ids)
}

func TestInitializeEmptyAnswers(t *testing.T) {
	draft := grading.Initialize(models.Submission{Assignment: sampleAssignment()})
	require.NotNil(t, draft.Answers)
	require.Empty(t, draft.Answers)
	require.Empty(t, draft.DroppedQuestionIDs)
}

func TestDuplicateQuestionIDFirstSectionWins(t *testing.T) {
	assignment := sampleAssignment()
	assignment.Sections[1].Questions = append(assignment.Sections[1].Questions, models.Question{ID: "Q1", Prompt: "dupe"})

	reconciler := grading.New(assignment)
	ref, ok := reconciler.Lookup("Q1")
	require.True(t, ok)
	require.Equal(t, models.SectionTypeMultipleChoice, ref.SectionType)
	require.Equal(t, 5, ref.PointsPerQuestion)
}

func TestSetScoreCoercesAndLeavesOthersUntouched(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q2", AISuggestedScore: floatPtr(2)},
			{QuestionID: "Q3", AISuggestedScore: floatPtr(6)},
		},
	}
	reconciler := grading.New(submission.Assignment)
	draft := reconciler.Initialize(submission)

	cases := []struct {
		name  string
		value float64
		want  float64
	}{
		{name: "integer", value: 8, want: 8},
		{name: "fraction floors", value: 8.9, want: 8},
		{name: "negative clamps", value: -3, want: 0},
		{name: "nan clamps", value: math.NaN(), want: 0},
		{name: "infinity clamps", value: math.Inf(1), want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := reconciler.SetScore(draft, "Q2", tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.want, next.Answers[0].ManualScore)
			require.Equal(t, 6.0, next.Answers[1].ManualScore)
			require.Equal(t, 2.0, draft.Answers[0].ManualScore, "input draft must not change")
		})
	}
}

func TestEditsReachEveryEntryForARepeatedQuestion(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q2", AISuggestedScore: floatPtr(3)},
			{QuestionID: "Q3", AISuggestedScore: floatPtr(1)},
			{QuestionID: "Q2", AISuggestedScore: floatPtr(4)},
		},
	}
	reconciler := grading.New(submission.Assignment)
	draft := reconciler.Initialize(submission)

	next, err := reconciler.SetScore(draft, "Q2", 9)
	require.NoError(t, err)
	next, err = reconciler.SetNotes(next, "Q2", "retyped")
	require.NoError(t, err)

	require.Equal(t, []grading.GradedAnswer{
		{QuestionID: "Q2", ManualScore: 9, Notes: "retyped"},
		{QuestionID: "Q3", ManualScore: 1},
		{QuestionID: "Q2", ManualScore: 9, Notes: "retyped"},
	}, next.Answers)
}

func TestSetScoreRejectsMultipleChoice(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers:    []models.Answer{{QuestionID: "Q1", Answer: "B"}},
	}
	reconciler := grading.New(submission.Assignment)
	draft := reconciler.Initialize(submission)

	next, err := reconciler.SetScore(draft, "Q1", 0)
	require.ErrorIs(t, err, grading.ErrScoreLocked)
	require.Equal(t, 5.0, next.Answers[0].ManualScore)
}

func TestSetScoreUnknownQuestion(t *testing.T) {
	reconciler := grading.New(sampleAssignment())
	_, err := reconciler.SetScore(grading.Draft{}, "Q2", 1)
	require.ErrorIs(t, err, grading.ErrQuestionNotInDraft)
}

func TestSetNotes(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers:    []models.Answer{{QuestionID: "Q1", Answer: "B"}, {QuestionID: "Q2"}},
	}
	reconciler := grading.New(submission.Assignment)
	draft := reconciler.Initialize(submission)

	next, err := reconciler.SetNotes(draft, "Q1", "lucky guess?")
	require.NoError(t, err)
	require.Equal(t, "lucky guess?", next.Answers[0].Notes)
	require.Empty(t, next.Answers[1].Notes)
	require.Equal(t, 5.0, next.Answers[0].ManualScore)

	_, err = reconciler.SetNotes(draft, "Q404", "x")
	require.ErrorIs(t, err, grading.ErrQuestionNotInDraft)
}

func TestValidateForSubmitNamesFirstOffendingQuestion(t *testing.T) {
	reconciler := grading.New(sampleAssignment())
	draft := grading.Draft{Answers: []grading.GradedAnswer{
		{QuestionID: "Q2", ManualScore: 4},
		{QuestionID: "Q3", ManualScore: -1},
		{QuestionID: "Q9", ManualScore: -2},
	}}

	err := reconciler.ValidateForSubmit(draft)
	require.Error(t, err)

	var validationErr *grading.ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "Q3", validationErr.QuestionID)
	require.Equal(t, `Invalid score for question: "Why this role?". Scores must be non-negative integers.`, err.Error())
}

func TestValidateForSubmitFallsBackToQuestionID(t *testing.T) {
	reconciler := grading.New(sampleAssignment())
	err := reconciler.ValidateForSubmit(grading.Draft{Answers: []grading.GradedAnswer{{QuestionID: "Q9", ManualScore: -1}}})
	require.EqualError(t, err, `Invalid score for question: "Q9". Scores must be non-negative integers.`)
}

func TestValidateForSubmitRejectsSeededScoresThatAreNotIntegers(t *testing.T) {
	submission := models.Submission{
		Assignment: sampleAssignment(),
		Answers: []models.Answer{
			{QuestionID: "Q2", ManualScore: floatPtr(-2)},
			{QuestionID: "Q3", AISuggestedScore: floatPtr(7.5)},
		},
	}
	reconciler := grading.New(submission.Assignment)

	draft := reconciler.Initialize(submission)
	require.Equal(t, []grading.GradedAnswer{
		{QuestionID: "Q2", ManualScore: -2},
		{QuestionID: "Q3", ManualScore: 7.5},
	}, draft.Answers)

	var validationErr *grading.ValidationError
	require.ErrorAs(t, reconciler.ValidateForSubmit(draft), &validationErr)
	require.Equal(t, "Q2", validationErr.QuestionID)

	draft, err := reconciler.SetScore(draft, "Q2", 4)
	require.NoError(t, err)
	require.ErrorAs(t, reconciler.ValidateForSubmit(draft), &validationErr)
	require.Equal(t, "Q3", validationErr.QuestionID)
	require.Equal(t, 7.5, validationErr.Score)

	draft, err = reconciler.SetScore(draft, "Q3", 7.5)
	require.NoError(t, err)
	require.NoError(t, reconciler.ValidateForSubmit(draft))
	require.Equal(t, 11, grading.Total(draft))
}

func TestValidateForSubmitAcceptsZero(t *testing.T) {
	reconciler := grading.New(sampleAssignment())
	draft := grading.Draft{Answers: []grading.GradedAnswer{{QuestionID: "Q2", ManualScore: 0}}}
	require.NoError(t, reconciler.ValidateForSubmit(draft))
	require.NoError(t, reconciler.ValidateForSubmit(grading.Draft{}))
}

func TestBuildPayloadEmitsIntegers(t *testing.T) {
	draft := grading.Draft{Answers: []grading.GradedAnswer{{QuestionID: "Q1", ManualScore: 5, Notes: ""}}}

	payload := grading.BuildPayload(draft, "ok")
	require.Equal(t, grading.Payload{
		GradedAnswers: []grading.ScoredAnswer{{QuestionID: "Q1", ManualScore: 5, Notes: ""}},
		GraderNotes:   "ok",
	}, payload)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"gradedAnswers":[{"questionId":"Q1","manualScore":5,"notes":""}],"graderNotes":"ok"}`, string(encoded))
}

func TestParseScore(t *testing.T) {
	cases := map[string]int{
		"7":     7,
		" 12 ":  12,
		"3.9":   3,
		"-4":    0,
		"+2":    2,
		"NaN":   0,
		"1e400": 0,
	}
	for input, want := range cases {
		got, err := grading.ParseScore(input)
		require.NoError(t, err, "input %q", input)
		require.Equal(t, want, got, "input %q", input)
	}

	for _, input := range []string{"", "  ", "abc", "9pts", "lots"} {
		_, err := grading.ParseScore(input)
		require.ErrorIs(t, err, grading.ErrNotNumeric, "input %q", input)
	}
}

func TestValidScore(t *testing.T) {
	require.True(t, grading.ValidScore(0))
	require.True(t, grading.ValidScore(12))
	require.False(t, grading.ValidScore(-1))
	require.False(t, grading.ValidScore(7.5))
	require.False(t, grading.ValidScore(math.NaN()))
	require.False(t, grading.ValidScore(math.Inf(1)))
}

func TestTotal(t *testing.T) {
	draft := grading.Draft{Answers: []grading.GradedAnswer{{ManualScore: 5}, {ManualScore: 7}}}
	require.Equal(t, 12, grading.Total(draft))
}
