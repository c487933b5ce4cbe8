package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/models"
	"github.com/moondev/applicant-portal-api/internal/repository"
)

// ErrInvalidCredentials indicates a failed sign-in attempt. The message is
// deliberately identical for unknown accounts and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService resolves identities and issues session tokens.
type AuthService interface {
	SignIn(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	CurrentUser(ctx context.Context, userID uint) (models.Profile, error)
}

type authService struct {
	profiles  repository.ProfileRepository
	validator *validator.Validate
	secret    []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(profiles repository.ProfileRepository, validate *validator.Validate, jwtSecret string, logger zerolog.Logger) AuthService {
	return &authService{
		profiles:  profiles,
		validator: validate,
		secret:    []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) SignIn(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Uint("user_id", profile.ID).Str("role", profile.Role).Msg("user signed in")

	return dto.LoginResponse{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		Token:  token,
	}, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (models.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}

func (s *authService) issueToken(profile models.Profile) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprint(profile.ID),
		"role": profile.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
