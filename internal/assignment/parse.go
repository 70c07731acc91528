// Package assignment parses and validates assignment definitions authored in the
// admin console, either as typed payloads or as raw JSON imports.
package assignment

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

const schemaURL = "https://schemas.orbit.internal/assignment.schema.json"

//go:embed schema/assignment.schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ErrInvalidJSON indicates the import body is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON format")

// Problem is a single violation found while checking an assignment.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ParseError lists every problem that prevented an assignment from being accepted.
type ParseError struct {
	Problems []Problem
}

func (e *ParseError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid assignment"
	}
	return e.Problems[0].Message
}

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, schemaSource)
	})
	return compiledSchema, schemaErr
}

// Parse decodes a raw JSON assignment, checks it against the assignment schema
// and then applies the authoring rules. Either a fully valid assignment or an
// error is returned, never a partially populated value.
func Parse(data []byte) (models.Assignment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return models.Assignment{}, fmt.Errorf("%w: empty document", ErrInvalidJSON)
	}

	var document interface{}
	if err := json.Unmarshal(trimmed, &document); err != nil {
		return models.Assignment{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	schema, err := compiled()
	if err != nil {
		return models.Assignment{}, fmt.Errorf("compile assignment schema: %w", err)
	}

	if err := schema.Validate(document); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return models.Assignment{}, &ParseError{Problems: schemaProblems(validationErr)}
		}
		return models.Assignment{}, err
	}

	var result models.Assignment
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return models.Assignment{}, &ParseError{Problems: []Problem{{Path: "", Message: err.Error()}}}
	}

	// Identity fields belong to the backend record, never to an imported document.
	result.ID = ""
	result.JobID = ""
	result.CreatedAt = nil
	result.UpdatedAt = nil

	if err := Validate(result); err != nil {
		return models.Assignment{}, err
	}

	return result, nil
}

func schemaProblems(root *jsonschema.ValidationError) []Problem {
	problems := make([]Problem, 0)
	var walk func(node *jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			path := node.InstanceLocation
			if path == "" {
				path = "/"
			}
			problems = append(problems, Problem{Path: path, Message: strings.TrimSpace(node.Message)})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(root)
	return problems
}
