package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
)

// superAdminSubject identifies superadmin sessions; they share one password.
const superAdminSubject = "superadmin"

// ErrSessionSigningDisabled indicates no secret is available to sign session tokens.
var ErrSessionSigningDisabled = errors.New("session signing is not configured")

// LoginGateway exchanges credentials with the platform.
type LoginGateway interface {
	Login(ctx context.Context, email, password string) (string, error)
	SuperAdminLogin(ctx context.Context, password string) error
}

// AuthConfig holds what the service needs to issue its own session tokens.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

// AuthService signs admins in against the platform.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	SuperAdminLogin(ctx context.Context, req dto.SuperAdminLoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	gateway   LoginGateway
	validator *validator.Validate
	activity  ActivityRecorder
	cfg       AuthConfig
	logger    zerolog.Logger
}

// NewAuthService constructs the login service.
func NewAuthService(gateway LoginGateway, validate *validator.Validate, activity ActivityRecorder, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	return &authService{
		gateway:   gateway,
		validator: validate,
		activity:  activity,
		cfg:       cfg,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	token, err := s.gateway.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Info().Err(err).Msg("admin login rejected")
		return dto.LoginResponse{}, err
	}

	track(ctx, s.activity, nil, s.logger, ActivityEntry{
		Action:     "admin.login",
		EntityType: "session",
		Metadata:   map[string]interface{}{"email": req.Email},
	})
	return dto.LoginResponse{Token: token}, nil
}

// SuperAdminLogin checks the shared password with the platform and issues a
// session token carrying the superadmin role.
func (s *authService) SuperAdminLogin(ctx context.Context, req dto.SuperAdminLoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}
	if s.cfg.JWTSecret == "" {
		return dto.LoginResponse{}, ErrSessionSigningDisabled
	}

	if err := s.gateway.SuperAdminLogin(ctx, req.Password); err != nil {
		s.logger.Info().Err(err).Msg("superadmin login rejected")
		return dto.LoginResponse{}, err
	}

	token, expiresAt, err := middleware.IssueToken(s.cfg.JWTSecret, superAdminSubject, []string{middleware.RoleSuperadmin}, s.cfg.SessionTTL)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	track(ctx, s.activity, nil, s.logger, ActivityEntry{
		ActorID:    superAdminSubject,
		ActorRole:  middleware.RoleSuperadmin,
		Action:     "superadmin.login",
		EntityType: "session",
	})
	return dto.LoginResponse{Token: token, ExpiresAt: &expiresAt}, nil
}
