package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-for-auth-service-unit-tests-only"

var errNotFound = errors.New("no rows in result set")

type fakeUserStore struct {
	users map[string]*model.User // by id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, id, username, email, passwordHash string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return nil, errors.New("duplicate key")
		}
	}
	u := &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.users[id] = u
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (s *fakeUserStore) ConfirmEmail(_ context.Context, id string) error {
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	u.EmailConfirmed = true
	return nil
}

type storedToken struct {
	tokenHash string
	expiresAt time.Time
	used      bool
}

type fakeConfirmationStore struct {
	tokens map[string][]*storedToken // by user id
}

func newFakeConfirmationStore() *fakeConfirmationStore {
	return &fakeConfirmationStore{tokens: map[string][]*storedToken{}}
}

func (s *fakeConfirmationStore) Store(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.tokens[userID] = append(s.tokens[userID], &storedToken{tokenHash: tokenHash, expiresAt: expiresAt})
	return nil
}

func (s *fakeConfirmationStore) Consume(_ context.Context, userID, tokenHash string) error {
	for _, t := range s.tokens[userID] {
		if t.tokenHash == tokenHash && !t.used && t.expiresAt.After(time.Now()) {
			t.used = true
			return nil
		}
	}
	return errNotFound
}

type fakeMailer struct {
	tokens  []string
	baseURL string
	fail    bool
}

func (m *fakeMailer) SendConfirmation(_ *model.User, token, baseURL string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.tokens = append(m.tokens, token)
	m.baseURL = baseURL
	return nil
}

func newTestAuthService(requireConfirmed bool) (*AuthService, *fakeUserStore, *fakeConfirmationStore, *fakeMailer) {
	users := newFakeUserStore()
	confirmations := newFakeConfirmationStore()
	m := &fakeMailer{}
	svc := NewAuthService(users, confirmations, m, testSecret, 7*24*time.Hour, requireConfirmed)
	return svc, users, confirmations, m
}

func registerUser(t *testing.T, svc *AuthService, username, email, password string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, "http://localhost:4000")
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, users, _, m := newTestAuthService(false)

		user := registerUser(t, svc, "alice", "Alice@Example.com", "secret1")

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
		assert.False(t, user.EmailConfirmed)

		stored := users.users[user.ID]
		require.NotNil(t, stored)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

		require.Len(t, m.tokens, 1, "confirmation token handed to the mailer")
		assert.Equal(t, "http://localhost:4000", m.baseURL)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)
		registerUser(t, svc, "alice", "alice@example.com", "secret1")

		_, err := svc.Register(ctx, &model.RegisterRequest{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "secret2",
		}, "http://localhost")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("weak password", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)

		_, err := svc.Register(ctx, &model.RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "12345",
		}, "http://localhost")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("invalid username", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)

		_, err := svc.Register(ctx, &model.RegisterRequest{
			Username: "ab",
			Email:    "ab@example.com",
			Password: "secret1",
		}, "http://localhost")
		assert.ErrorIs(t, err, ErrInvalidUsername)
	})

	t.Run("mailer failure does not roll back registration", func(t *testing.T) {
		svc, users, _, m := newTestAuthService(false)
		m.fail = true

		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")
		assert.NotNil(t, users.users[user.ID])
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - token carries identity claims", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)
		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")

		tokenStr, err := svc.Login(ctx, &model.LoginRequest{Email: "alice@example.com", Password: "secret1"})
		require.NoError(t, err)
		require.NotEmpty(t, tokenStr)

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "alice", claims["sub"])
		assert.Equal(t, "alice@example.com", claims["email"])
		assert.Equal(t, user.ID, claims["uid"])
		assert.NotEmpty(t, claims["jti"])

		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp.Time, time.Minute)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)
		registerUser(t, svc, "alice", "alice@example.com", "secret1")

		_, errUnknown := svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
		_, errWrongPw := svc.Login(ctx, &model.LoginRequest{Email: "alice@example.com", Password: "wrong"})

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		assert.Equal(t, errUnknown, errWrongPw)
	})

	t.Run("unconfirmed email gated when required", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(true)
		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")

		_, err := svc.Login(ctx, &model.LoginRequest{Email: "alice@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, ErrEmailNotConfirmed)

		// Confirm, then login succeeds
		require.NoError(t, svc.users.ConfirmEmail(ctx, user.ID))
		_, err = svc.Login(ctx, &model.LoginRequest{Email: "alice@example.com", Password: "secret1"})
		assert.NoError(t, err)
	})
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, users, _, m := newTestAuthService(false)
		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")
		require.Len(t, m.tokens, 1)

		require.NoError(t, svc.ConfirmEmail(ctx, user.ID, m.tokens[0]))
		assert.True(t, users.users[user.ID].EmailConfirmed)
	})

	t.Run("token is single use", func(t *testing.T) {
		svc, _, _, m := newTestAuthService(false)
		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")

		require.NoError(t, svc.ConfirmEmail(ctx, user.ID, m.tokens[0]))
		assert.ErrorIs(t, svc.ConfirmEmail(ctx, user.ID, m.tokens[0]), ErrInvalidToken)
	})

	t.Run("wrong token", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)
		user := registerUser(t, svc, "alice", "alice@example.com", "secret1")

		assert.ErrorIs(t, svc.ConfirmEmail(ctx, user.ID, "bogus"), ErrInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(false)

		assert.ErrorIs(t, svc.ConfirmEmail(ctx, "missing", "token"), ErrUserNotFound)
	})
}

func TestAuthService_FillContacts(t *testing.T) {
	svc, _, _, _ := newTestAuthService(false)
	alice := registerUser(t, svc, "alice", "alice@example.com", "secret1")

	contacts := svc.FillContacts(context.Background(), []model.Contact{
		{UserID: alice.ID, LastMessage: "hi"},
		{UserID: "ghost", LastMessage: "boo"},
	})

	require.Len(t, contacts, 2)
	assert.Equal(t, "alice", contacts[0].Username)
	assert.Equal(t, "alice@example.com", contacts[0].Email)
	assert.Equal(t, "hi", contacts[0].LastMessage)
	assert.Empty(t, contacts[1].Username, "unknown ids pass through untouched")
}
