package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/orbit-admin-api/internal/backend"
	"github.com/noah-isme/orbit-admin-api/internal/config"
	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/handler"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
	"github.com/noah-isme/orbit-admin-api/internal/router"
	"github.com/noah-isme/orbit-admin-api/internal/service"
)

const testSecret = "test-secret"

// fakePlatform is an in-memory stand-in for the hiring platform REST API.
type fakePlatform struct {
	mu          sync.Mutex
	jobs        []models.Job
	assignments map[string]models.Assignment
	submission  models.Submission
	graded      []grading.Payload
	applicants  map[string]models.Applicant
	lastQuery   string
	failJobs    int
	tokens      []string
}

func newFakePlatform() *fakePlatform {
	score := 6.0
	return &fakePlatform{
		jobs:        []models.Job{{ID: "job-1", Title: "Admissions Counsellor", JobType: models.JobTypeFullTime, Location: models.LocationRemote}},
		assignments: map[string]models.Assignment{},
		applicants: map[string]models.Applicant{
			"c-1": {ID: "c-1", Name: "Ana", Email: "ana@example.com", ApplicationStatus: models.ApplicationStatusApplied},
			"a-1": {ID: "a-1", Name: "Bo", Email: "bo@example.com", ApplicationStatus: models.ApplicationStatusApplied},
		},
		submission: models.Submission{
			ID:            "sub-1",
			ApplicationID: "app-1",
			Status:        models.SubmissionStatusCompleted,
			Assignment: models.Assignment{
				Title:        "Counsellor screening",
				PassingScore: 85,
				Sections: []models.Section{
					{
						Title:             "Policies",
						Type:              models.SectionTypeMultipleChoice,
						PointsPerQuestion: 2,
						Questions: []models.Question{
							{ID: "Q1", Prompt: "Refund window?", Options: []models.Option{{Key: "A", Text: "7"}, {Key: "B", Text: "30"}}, CorrectAnswer: "B"},
						},
					},
					{
						Title:             "Scenarios",
						Type:              models.SectionTypeShortAnswer,
						PointsPerQuestion: 10,
						Questions:         []models.Question{{ID: "Q2", Prompt: "Handle an upset parent"}},
					},
				},
			},
			Answers: []models.Answer{
				{QuestionID: "Q1", Answer: "B"},
				{QuestionID: "Q2", Answer: "Listen first", AISuggestedScore: &score},
			},
		},
	}
}

func (p *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "correct" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "platform-token"})
	})

	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(backend.SuperAdminPasswordHeader) != "orbit-root" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	mux.HandleFunc("GET /api/admin/jobs", p.authed(func(w http.ResponseWriter, r *http.Request) {
		if p.failJobs > 0 {
			writeJSON(w, p.failJobs, map[string]string{"message": "jobs unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": p.jobs})
	}))
	mux.HandleFunc("POST /api/admin/jobs", p.authed(func(w http.ResponseWriter, r *http.Request) {
		var input backend.JobInput
		_ = json.NewDecoder(r.Body).Decode(&input)
		job := models.Job{ID: "job-2", Title: input.Title, JobType: input.JobType, Location: input.Location, Description: input.Description}
		p.jobs = append(p.jobs, job)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": job})
	}))
	mux.HandleFunc("DELETE /api/admin/jobs/{id}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/admin/jobs/{id}/applicants", p.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "job-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Job not found"})
			return
		}
		writeJSON(w, http.StatusOK, models.JobWithApplicants{Job: p.jobs[0]})
	}))

	mux.HandleFunc("GET /api/assignment/jobs/{id}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		a, ok := p.assignments[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Assignment not found"})
			return
		}
		writeJSON(w, http.StatusOK, a)
	}))
	saveAssignment := p.authed(func(w http.ResponseWriter, r *http.Request) {
		var a models.Assignment
		_ = json.NewDecoder(r.Body).Decode(&a)
		a.ID = "asg-" + r.PathValue("id")
		a.JobID = r.PathValue("id")
		p.assignments[r.PathValue("id")] = a
		writeJSON(w, http.StatusOK, a)
	})
	mux.HandleFunc("POST /api/assignment/jobs/{id}", saveAssignment)
	mux.HandleFunc("PUT /api/assignment/jobs/{id}", saveAssignment)

	mux.HandleFunc("GET /api/assignment/submissions/{id}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != p.submission.ApplicationID {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Submission not found"})
			return
		}
		writeJSON(w, http.StatusOK, p.submission)
	}))
	mux.HandleFunc("POST /api/assignment/submissions/{id}/grade", p.authed(func(w http.ResponseWriter, r *http.Request) {
		var payload grading.Payload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		p.graded = append(p.graded, payload)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Submission graded successfully!"})
	}))

	listApplicants := func(prefix string) http.HandlerFunc {
		return p.authed(func(w http.ResponseWriter, r *http.Request) {
			p.lastQuery = r.URL.RawQuery
			items := make([]models.Applicant, 0)
			for id, applicant := range p.applicants {
				if strings.HasPrefix(id, prefix) {
					items = append(items, applicant)
				}
			}
			writeJSON(w, http.StatusOK, models.ApplicantPage{Data: items, Pagination: models.Pagination{Total: len(items), Page: 1, Limit: 10, TotalPages: 1}})
		})
	}
	mux.HandleFunc("GET /api/admin/councellers", listApplicants("c-"))
	mux.HandleFunc("GET /api/admin/agents", listApplicants("a-"))

	patchApplicant := p.authed(func(w http.ResponseWriter, r *http.Request) {
		applicant, ok := p.applicants[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Applicant not found"})
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if status, ok := body["applicationStatus"].(string); ok {
			applicant.ApplicationStatus = models.ApplicationStatus(status)
		}
		if verified, ok := body["isVerified"].(bool); ok {
			applicant.IsVerified = verified
		}
		if email, ok := body["email"].(string); ok {
			applicant.Email = email
		}
		p.applicants[applicant.ID] = applicant
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": applicant})
	})
	mux.HandleFunc("PATCH /api/admin/counceller/{id}/{field}", patchApplicant)
	mux.HandleFunc("PATCH /api/admin/agent/{id}/{field}", patchApplicant)
	mux.HandleFunc("POST /api/admin/agents/assign-counsellors", p.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Assigned 1 agent"})
	}))

	return mux
}

func (p *fakePlatform) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		p.tokens = append(p.tokens, token)
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type adminApp struct {
	app      *fiber.App
	platform *fakePlatform
	redis    *miniredis.Miniredis
	events   service.EventService
}

func setupAdminApp(t *testing.T) adminApp {
	t.Helper()

	platform := newFakePlatform()
	server := httptest.NewServer(platform.handler())
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ActivityLog{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	client, err := backend.New(backend.Config{BaseURL: server.URL + "/api/admin", Timeout: 5 * time.Second, Logger: logger})
	require.NoError(t, err)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	events := service.NewEventService(nil, nil, service.EventConfig{}, logger)
	drafts := repository.NewDraftRepository(redisClient, "test:drafts")

	jobs := service.NewJobService(client, redisClient, time.Minute, validate, activity, events, logger)
	assignments := service.NewAssignmentService(client, validate, activity, events, logger)
	gradingSvc := service.NewGradingService(client, drafts, time.Hour, activity, events, logger)
	applicants := service.NewApplicantService(client, validate, activity, events, logger)
	auth := service.NewAuthService(client, validate, activity, service.AuthConfig{JWTSecret: testSecret, SessionTTL: time.Hour}, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test", RateLimitMax: 1000, RateLimitWindow: time.Minute}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(auth, logger),
		JobHandler:        handler.NewAdminJobHandler(jobs, logger),
		AssignmentHandler: handler.NewAdminAssignmentHandler(assignments, logger),
		GradingHandler:    handler.NewAdminGradingHandler(gradingSvc, validate, logger),
		CounsellorHandler: handler.NewAdminApplicantHandler(applicants, models.ApplicantKindCounsellor, logger),
		AgentHandler:      handler.NewAdminApplicantHandler(applicants, models.ApplicantKindAgent, logger),
		ActivityHandler:   handler.NewAdminActivityHandler(activity, logger),
		FeedHandler:       handler.NewActivityFeedHandler(service.NewActivityFeedService(repository.NewActivityLogRepository(db), redisClient, time.Minute, logger), logger),
		EventHandler:      handler.NewAdminEventHandler(events, logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret),
		DisableMetrics:    true,
	})

	return adminApp{app: app, platform: platform, redis: mr, events: events}
}

func tokenFor(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func (a adminApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a adminApp) doJSON(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	if body == nil {
		return a.do(t, method, path, token, nil, "")
	}
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	return a.do(t, method, path, token, strings.NewReader(string(encoded)), fiber.MIMEApplicationJSON)
}
