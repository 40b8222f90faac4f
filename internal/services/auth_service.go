package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"streamify/internal/auth"
	"streamify/internal/chat"
	"streamify/internal/config"
	"streamify/internal/models"
	"streamify/internal/storage"
)

var (
	ErrEmailTaken   = errors.New("user already exists")
	ErrInvalidLogin = errors.New("invalid email or password")
	ErrUserNotFound = errors.New("user not found")
)

// The avatar assigned at signup is a uniform pick from a fixed catalog.
const (
	avatarCatalogSize = 100
	avatarURLFormat   = "https://avatar.iran.liara.run/public/%d.png"
)

// SignupInput carries the validated signup fields.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService defines the account lifecycle operations.
type AuthService interface {
	// Signup creates the account and returns it with a fresh session token.
	Signup(ctx context.Context, in SignupInput) (*models.User, string, error)
	// Login verifies credentials and returns the user with a session token.
	// Unknown email and wrong password are indistinguishable to the caller.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// Onboard applies the allow-listed profile fields and marks the user
	// as onboarded.
	Onboard(ctx context.Context, userID uint, update models.ProfileUpdate) (*models.User, error)
}

type authService struct {
	userRepo storage.UserRepository
	syncer   chat.IdentitySyncer
	cfg      config.Config
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo storage.UserRepository, syncer chat.IdentitySyncer, cfg config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		syncer:   syncer,
		cfg:      cfg,
	}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	_, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("checking email: %w", err)
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	newUser := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		AvatarURL:    randomAvatarURL(),
		IsOnboarded:  false,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// The unique index closes the race the pre-check leaves open.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := auth.GenerateToken(newUser.ID, s.cfg.Auth)
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}

	// Best-effort; a provider outage must never fail the signup.
	s.syncer.SyncUser(newUser)

	return newUser, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidLogin
		}
		return nil, "", fmt.Errorf("looking up user by email: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidLogin
	}

	token, err := auth.GenerateToken(user.ID, s.cfg.Auth)
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}

	return user, token, nil
}

func (s *authService) Onboard(ctx context.Context, userID uint, update models.ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.syncer.SyncUser(user)

	return user, nil
}

func randomAvatarURL() string {
	idx := rand.IntN(avatarCatalogSize) + 1
	return fmt.Sprintf(avatarURLFormat, idx)
}
