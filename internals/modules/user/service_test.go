package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"endpoint-monitor/config"
	"endpoint-monitor/internals/security"
	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/rabbitmq"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memRepo struct {
	mu      sync.Mutex
	byEmail map[string]User
	// token hash -> email
	pending map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{byEmail: map[string]User{}, pending: map[string]string{}}
}

func (m *memRepo) CreateUser(_ context.Context, cmd CreateUserCmd, hash string, v Verification) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[cmd.Email]; ok {
		return uuid.UUID{}, &apperror.Error{Kind: apperror.AlreadyExists, Message: "resource already exists"}
	}
	u := User{
		ID:           uuid.New(),
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: hash,
		TokenExpiry:  v.ExpiresAt,
		CreatedAt:    time.Now(),
	}
	m.byEmail[cmd.Email] = u
	m.pending[v.TokenHash] = cmd.Email
	return u.ID, nil
}

func (m *memRepo) GetUserByID(_ context.Context, id uuid.UUID) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, &apperror.Error{Kind: apperror.NotFound}
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return User{}, &apperror.Error{Kind: apperror.NotFound}
	}
	return u, nil
}

func (m *memRepo) GetUserByVerificationToken(_ context.Context, tokenHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.pending[tokenHash]
	if !ok {
		return User{}, &apperror.Error{Kind: apperror.NotFound}
	}
	return m.byEmail[email], nil
}

func (m *memRepo) SetVerificationToken(_ context.Context, id uuid.UUID, v Verification) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, u := range m.byEmail {
		if u.ID != id || u.EmailVerified {
			continue
		}
		for h, e := range m.pending {
			if e == email {
				delete(m.pending, h)
			}
		}
		m.pending[v.TokenHash] = email
		u.TokenExpiry = v.ExpiresAt
		m.byEmail[email] = u
		return u, nil
	}
	return User{}, &apperror.Error{Kind: apperror.NotFound}
}

func (m *memRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, u := range m.byEmail {
		if u.ID != id {
			continue
		}
		for h, e := range m.pending {
			if e == email {
				delete(m.pending, h)
			}
		}
		u.EmailVerified = true
		u.TokenExpiry = time.Time{}
		m.byEmail[email] = u
		return u, nil
	}
	return User{}, &apperror.Error{Kind: apperror.NotFound}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []rabbitmq.Event
}

func (r *eventRecorder) Submit(msg rabbitmq.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
}

// lastToken pulls the token out of the most recent verification link.
func (r *eventRecorder) lastToken(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no verification event submitted")
	}
	msg := r.events[len(r.events)-1]
	if msg.Type != EventVerificationRequested {
		t.Fatalf("event type = %q", msg.Type)
	}
	var payload VerificationRequestedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	link, err := url.Parse(payload.Link)
	if err != nil {
		t.Fatalf("parse link %q: %v", payload.Link, err)
	}
	return link.Query().Get("token")
}

type testEnv struct {
	svc    *Service
	repo   *memRepo
	events *eventRecorder
	tokens *security.TokenService
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	tokens, err := security.NewTokenService(&config.AuthConfig{Secret: "0123456789abcdef0123", ExpiryMin: 30}, "endpoint-monitor")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	hasher := security.NewPasswordHasher(&argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	env := &testEnv{
		repo:   newMemRepo(),
		events: &eventRecorder{},
		tokens: tokens,
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(env.repo, hasher, tokens, VerificationOptions{
		Expiry: time.Hour,
		URL:    "https://app.example.com/verify-email",
	}, env.events, &log)
	env.svc.now = func() time.Time { return env.now }
	return env
}

// registerVerified registers a user and consumes the emailed token.
func (e *testEnv) registerVerified(t *testing.T, cmd CreateUserCmd) uuid.UUID {
	t.Helper()
	id, err := e.svc.Register(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := e.svc.VerifyEmail(context.Background(), e.events.lastToken(t)); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return id
}

func TestRegisterAndLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.registerVerified(t, CreateUserCmd{Username: "ops", Email: " Ops@Example.com ", Password: "hunter2hunter2"})

	res, err := env.svc.LogIn(ctx, LogInUserCmd{Email: "ops@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if res.UserID != id {
		t.Errorf("user id = %s, want %s", res.UserID, id)
	}
	claims, err := env.tokens.ValidateAccessToken(res.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != id.String() || claims.Email != "ops@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	profile, err := env.svc.GetProfile(ctx, id)
	if err != nil || profile.Username != "ops" || !profile.EmailVerified {
		t.Errorf("GetProfile = %+v, %v", profile, err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cmd := CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}

	if _, err := env.svc.Register(ctx, cmd); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := env.svc.Register(ctx, cmd); !apperror.IsKind(err, apperror.AlreadyExists) {
		t.Fatalf("want already_exist, got %v", err)
	}
}

func TestLogIn_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"})

	for name, cmd := range map[string]LogInUserCmd{
		"wrong password": {Email: "ops@example.com", Password: "nope-nope"},
		"unknown email":  {Email: "who@example.com", Password: "hunter2hunter2"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := env.svc.LogIn(ctx, cmd); !apperror.IsKind(err, apperror.Unauthorised) {
				t.Fatalf("want unauthorised, got %v", err)
			}
		})
	}
}

func TestRegister_RequestsVerificationEmail(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.svc.Register(context.Background(), CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(env.events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(env.events.events))
	}
	var payload VerificationRequestedEvent
	if err := json.Unmarshal(env.events.events[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.UserID != id || payload.Email != "ops@example.com" {
		t.Errorf("payload = %+v", payload)
	}
	if !strings.HasPrefix(payload.Link, "https://app.example.com/verify-email?token=") {
		t.Errorf("link = %q", payload.Link)
	}
	if !payload.ExpiresAt.Equal(env.now.Add(time.Hour)) {
		t.Errorf("expires_at = %v, want %v", payload.ExpiresAt, env.now.Add(time.Hour))
	}

	// only the hash is stored
	token := env.events.lastToken(t)
	if _, ok := env.repo.pending[token]; ok {
		t.Error("raw token must not be persisted")
	}
	if _, ok := env.repo.pending[hashToken(token)]; !ok {
		t.Error("token hash not persisted")
	}
}

func TestLogIn_UnverifiedEmailIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Register(ctx, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := env.svc.LogIn(ctx, LogInUserCmd{Email: "ops@example.com", Password: "hunter2hunter2"})
	if !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("want forbidden before verification, got %v", err)
	}
	// a wrong password is still reported as bad credentials
	_, err = env.svc.LogIn(ctx, LogInUserCmd{Email: "ops@example.com", Password: "nope-nope"})
	if !apperror.IsKind(err, apperror.Unauthorised) {
		t.Fatalf("want unauthorised for wrong password, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	t.Run("token is single use", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		if _, err := env.svc.Register(ctx, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		token := env.events.lastToken(t)

		u, err := env.svc.VerifyEmail(ctx, token)
		if err != nil || !u.EmailVerified {
			t.Fatalf("VerifyEmail = %+v, %v", u, err)
		}
		if _, err := env.svc.VerifyEmail(ctx, token); !apperror.IsKind(err, apperror.InvalidInput) {
			t.Fatalf("second use: want invalid_input, got %v", err)
		}
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		env := newTestEnv(t)
		for _, token := range []string{"", "   ", uuid.NewString()} {
			if _, err := env.svc.VerifyEmail(context.Background(), token); !apperror.IsKind(err, apperror.InvalidInput) {
				t.Errorf("token %q: want invalid_input, got %v", token, err)
			}
		}
	})

	t.Run("expired token", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		if _, err := env.svc.Register(ctx, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		token := env.events.lastToken(t)
		env.now = env.now.Add(time.Hour + time.Second)

		_, err := env.svc.VerifyEmail(ctx, token)
		if !apperror.IsKind(err, apperror.InvalidInput) || !strings.Contains(err.(*apperror.Error).Message, "expired") {
			t.Fatalf("want expired error, got %v", err)
		}
	})
}

func TestResendVerification(t *testing.T) {
	t.Run("new token replaces the old one", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		if _, err := env.svc.Register(ctx, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		first := env.events.lastToken(t)

		env.now = env.now.Add(2 * time.Hour)
		if err := env.svc.ResendVerification(ctx, "OPS@example.com"); err != nil {
			t.Fatalf("ResendVerification: %v", err)
		}
		second := env.events.lastToken(t)
		if second == first {
			t.Fatal("resend must issue a new token")
		}
		if _, err := env.svc.VerifyEmail(ctx, first); !apperror.IsKind(err, apperror.InvalidInput) {
			t.Errorf("old token: want invalid_input, got %v", err)
		}
		if _, err := env.svc.VerifyEmail(ctx, second); err != nil {
			t.Errorf("new token: %v", err)
		}
	})

	t.Run("already verified", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerVerified(t, CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"})
		if err := env.svc.ResendVerification(context.Background(), "ops@example.com"); !apperror.IsKind(err, apperror.Conflict) {
			t.Fatalf("want conflict, got %v", err)
		}
	})

	t.Run("unknown email is silent", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.svc.ResendVerification(context.Background(), "nobody@example.com"); err != nil {
			t.Fatalf("want nil, got %v", err)
		}
		if len(env.events.events) != 0 {
			t.Error("no event for an unknown email")
		}
	})
}

func TestRegister_WithoutEventSink(t *testing.T) {
	env := newTestEnv(t)
	env.svc.events = nil
	if _, err := env.svc.Register(context.Background(), CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Register must not depend on the broker: %v", err)
	}
}

func TestHandler_VerifyEmailRoutes(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc, validator.New())
	if _, err := env.svc.Register(context.Background(), CreateUserCmd{Username: "ops", Email: "ops@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		want    int
	}{
		{"verify missing token", h.VerifyEmail, `{}`, http.StatusBadRequest},
		{"verify bad token", h.VerifyEmail, `{"token":"nope"}`, http.StatusBadRequest},
		{"verify ok", h.VerifyEmail, `{"token":"` + env.events.lastToken(t) + `"}`, http.StatusOK},
		{"resend bad email", h.ResendVerification, `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"resend unknown", h.ResendVerification, `{"email":"x@example.com"}`, http.StatusAccepted},
		{"resend verified", h.ResendVerification, `{"email":"ops@example.com"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			tc.handler(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
