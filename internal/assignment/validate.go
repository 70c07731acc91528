package assignment

import (
	"fmt"
	"strings"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// MinOptions is the fewest choices a multiple-choice question may offer.
const MinOptions = 2

// Validate applies the authoring rules every saved assignment must satisfy.
// All violations are collected so an editor can fix them in one pass.
func Validate(a models.Assignment) error {
	var problems []Problem
	add := func(path, format string, args ...interface{}) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(a.Title) == "" {
		add("/title", "Assignment title is required.")
	}
	if a.PassingScore < 0 || a.PassingScore > 100 {
		add("/passingScore", "Passing score must be between 0 and 100.")
	}
	if len(a.Sections) == 0 {
		add("/sections", "An assignment must have at least one section.")
	}

	seenIDs := make(map[string]string)
	for s, section := range a.Sections {
		sectionPath := fmt.Sprintf("/sections/%d", s)
		if strings.TrimSpace(section.Title) == "" {
			add(sectionPath+"/title", "Every section must have a title.")
		}
		if !section.Type.Valid() {
			add(sectionPath+"/type", "Section type %q is not supported.", section.Type)
		}
		if section.PointsPerQuestion <= 0 {
			add(sectionPath+"/pointsPerQuestion", "Points per question must be a positive integer.")
		}
		if len(section.Questions) == 0 {
			add(sectionPath+"/questions", "Section %q must have at least one question.", section.Title)
		}

		for q, question := range section.Questions {
			questionPath := fmt.Sprintf("%s/questions/%d", sectionPath, q)
			id := strings.TrimSpace(question.ID)
			if id == "" || strings.TrimSpace(question.Prompt) == "" {
				add(questionPath, "Every question must have an ID and a prompt.")
			}
			if id != "" {
				if previous, dup := seenIDs[id]; dup {
					add(questionPath+"/id", "Question ID %q is already used at %s.", id, previous)
				} else {
					seenIDs[id] = questionPath
				}
			}

			if section.Type.IsMultipleChoice() {
				problems = append(problems, multipleChoiceProblems(questionPath, question)...)
			}
		}
	}

	if len(problems) > 0 {
		return &ParseError{Problems: problems}
	}
	return nil
}

func multipleChoiceProblems(path string, question models.Question) []Problem {
	var problems []Problem
	if len(question.Options) < MinOptions {
		problems = append(problems, Problem{Path: path + "/options", Message: "A multiple-choice question must have at least two options."})
	}

	keys := make(map[string]struct{}, len(question.Options))
	blank := false
	for _, option := range question.Options {
		key := strings.TrimSpace(option.Key)
		if key == "" || strings.TrimSpace(option.Text) == "" {
			blank = true
		}
		if key == "" {
			continue
		}
		if _, dup := keys[key]; dup {
			problems = append(problems, Problem{Path: path + "/options", Message: fmt.Sprintf("Option key %q is used more than once.", key)})
		}
		keys[key] = struct{}{}
	}
	if blank {
		problems = append(problems, Problem{Path: path + "/options", Message: "All options must have a key and text."})
	}

	correct := strings.TrimSpace(question.CorrectAnswer)
	switch {
	case correct == "":
		problems = append(problems, Problem{Path: path + "/correctAnswer", Message: "A multiple-choice question must have a correct answer specified."})
	case len(keys) > 0:
		if _, ok := keys[correct]; !ok {
			problems = append(problems, Problem{Path: path + "/correctAnswer", Message: fmt.Sprintf("Correct answer %q does not match any option key.", correct)})
		}
	}

	return problems
}
