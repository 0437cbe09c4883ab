package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/mailer"
	"github.com/IlyaM70/JustMessanger/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
	ErrEmailNotConfirmed  = errors.New("email is not confirmed")
	ErrUserNotFound       = errors.New("user was not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters")
)

const confirmationTokenTTL = 24 * time.Hour

// UserStore is the slice of the identity store the auth service needs.
type UserStore interface {
	Create(ctx context.Context, id, username, email, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ConfirmEmail(ctx context.Context, id string) error
}

// ConfirmationStore holds single-use email confirmation tokens.
type ConfirmationStore interface {
	Store(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	Consume(ctx context.Context, userID, tokenHash string) error
}

type AuthService struct {
	users           UserStore
	confirmations   ConfirmationStore
	mailer          mailer.Mailer
	jwtSecret       []byte
	tokenTTL        time.Duration
	requireConfirmed bool
}

func NewAuthService(users UserStore, confirmations ConfirmationStore, m mailer.Mailer, jwtSecret string, tokenTTL time.Duration, requireConfirmed bool) *AuthService {
	return &AuthService{
		users:            users,
		confirmations:    confirmations,
		mailer:           m,
		jwtSecret:        []byte(jwtSecret),
		tokenTTL:         tokenTTL,
		requireConfirmed: requireConfirmed,
	}
}

// Register creates an unconfirmed user and hands a confirmation token to the
// mailer. Mailer failure never rolls registration back.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest, baseURL string) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if len(req.Username) < 3 || len(req.Username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(req.Password) < 6 {
		return nil, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, uuid.NewString(), req.Username, req.Email, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(confirmationTokenTTL)
	if err := s.confirmations.Store(ctx, user.ID, hashToken(token), expiresAt); err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}

	if err := s.mailer.SendConfirmation(user, token, baseURL); err != nil {
		log.Printf("Auth: confirmation mail for %s failed: %v", user.Email, err)
	}

	return user, nil
}

// Login verifies the credential and issues a signed bearer token. Unknown
// email and bad password produce the same error.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if s.requireConfirmed && !user.EmailConfirmed {
		return "", ErrEmailNotConfirmed
	}

	return s.generateToken(user)
}

// ConfirmEmail validates a single-use token and marks the account confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID, token string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if err := s.confirmations.Consume(ctx, user.ID, hashToken(token)); err != nil {
		return ErrInvalidToken
	}

	if err := s.users.ConfirmEmail(ctx, user.ID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

// UserByID resolves a user for the existence endpoint the message service
// depends on.
func (s *AuthService) UserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FillContacts enriches a contact list with usernames and emails. Unknown
// ids pass through untouched.
func (s *AuthService) FillContacts(ctx context.Context, contacts []model.Contact) []model.Contact {
	for i := range contacts {
		user, err := s.users.GetByID(ctx, contacts[i].UserID)
		if err != nil {
			continue
		}
		contacts[i].Username = user.Username
		contacts[i].Email = user.Email
	}
	return contacts
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.Username,
		"jti":   uuid.NewString(),
		"email": user.Email,
		"uid":   user.ID,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
