package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Repository interface {
	CreateUser(ctx context.Context, user CreateUserCmd, passwordHash string, v Verification) (uuid.UUID, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByVerificationToken(ctx context.Context, tokenHash string) (User, error)
	SetVerificationToken(ctx context.Context, userID uuid.UUID, v Verification) (User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) (User, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, time.Time, error)
}

// EventSink hands events to the broker without blocking.
type EventSink interface {
	Submit(msg rabbitmq.Event)
}

type Service struct {
	repo         Repository
	hasher       Hasher
	tokens       TokenIssuer
	verification VerificationOptions
	events       EventSink
	logger       *zerolog.Logger
	now          func() time.Time
}

// NewService builds the account service. events may be nil, in which case
// verification links are only logged as undeliverable.
func NewService(repo Repository, hasher Hasher, tokens TokenIssuer, verification VerificationOptions, events EventSink, logger *zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// Register creates an unverified user and requests a verification email. A
// duplicate email surfaces as already_exist from the unique constraint.
func (s *Service) Register(ctx context.Context, data CreateUserCmd) (uuid.UUID, error) {
	const op string = "service.user.register"

	data.Email = strings.ToLower(strings.TrimSpace(data.Email))
	data.Username = strings.TrimSpace(data.Username)

	hash, err := s.hasher.Hash(data.Password)
	if err != nil {
		return uuid.UUID{}, apperror.New(apperror.Internal, op, err)
	}

	token, v := s.newVerification()
	id, err := s.repo.CreateUser(ctx, data, hash, v)
	if err != nil {
		if apperror.IsKind(err, apperror.AlreadyExists) {
			return uuid.UUID{}, &apperror.Error{
				Kind:    apperror.AlreadyExists,
				Op:      op,
				Message: "user with this email already exists",
				Err:     err,
			}
		}
		return uuid.UUID{}, err
	}

	s.logger.Info().Str("user_id", id.String()).Msg("user registered")
	s.requestVerification(User{ID: id, Username: data.Username, Email: data.Email}, token, v.ExpiresAt)
	return id, nil
}

// LogIn verifies the credentials and issues an access token. Unknown email
// and wrong password produce the same error; an unverified email is refused
// only after the password matched.
func (s *Service) LogIn(ctx context.Context, data LogInUserCmd) (LogInUserResult, error) {
	const op string = "service.user.log_in"

	invalid := &apperror.Error{
		Kind:    apperror.Unauthorised,
		Op:      op,
		Message: "invalid email or password",
	}

	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(data.Email)))
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return LogInUserResult{}, invalid
		}
		return LogInUserResult{}, err
	}

	ok, err := s.hasher.Compare(data.Password, u.PasswordHash)
	if err != nil {
		return LogInUserResult{}, apperror.New(apperror.Internal, op, err)
	}
	if !ok {
		return LogInUserResult{}, invalid
	}
	if !u.EmailVerified {
		return LogInUserResult{}, &apperror.Error{
			Kind:    apperror.Forbidden,
			Op:      op,
			Message: "please verify your email first",
		}
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return LogInUserResult{}, err
	}

	return LogInUserResult{
		UserID:      u.ID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyEmail consumes a verification token. Tokens are single use.
func (s *Service) VerifyEmail(ctx context.Context, token string) (User, error) {
	const op string = "service.user.verify_email"

	invalid := &apperror.Error{
		Kind:    apperror.InvalidInput,
		Op:      op,
		Message: "invalid verification token",
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, invalid
	}

	u, err := s.repo.GetUserByVerificationToken(ctx, hashToken(token))
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return User{}, invalid
		}
		return User{}, err
	}
	if !u.TokenExpiry.IsZero() && u.TokenExpiry.Before(s.now()) {
		return User{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "verification token has expired",
		}
	}

	verified, err := s.repo.MarkEmailVerified(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("email verified")
	return verified, nil
}

// ResendVerification issues a fresh token, invalidating the previous one.
// Unknown emails succeed silently so the endpoint does not reveal accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	const op string = "service.user.resend_verification"

	alreadyVerified := &apperror.Error{
		Kind:    apperror.Conflict,
		Op:      op,
		Message: "email already verified",
	}

	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return nil
		}
		return err
	}
	if u.EmailVerified {
		return alreadyVerified
	}

	token, v := s.newVerification()
	u, err = s.repo.SetVerificationToken(ctx, u.ID, v)
	if err != nil {
		// verified between the read and the update
		if apperror.IsKind(err, apperror.NotFound) {
			return alreadyVerified
		}
		return err
	}

	s.requestVerification(u, token, v.ExpiresAt)
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) newVerification() (string, Verification) {
	token := uuid.NewString()
	return token, Verification{
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(s.verification.Expiry),
	}
}

// requestVerification is fire-and-forget: the account exists either way and
// the user can ask for another link.
func (s *Service) requestVerification(u User, token string, expiresAt time.Time) {
	if s.events == nil {
		s.logger.Warn().Str("user_id", u.ID.String()).Msg("no event sink, verification email not requested")
		return
	}

	msg, err := rabbitmq.NewEvent(EventVerificationRequested, VerificationRequestedEvent{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Link:      verificationLink(s.verification.URL, token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to encode verification event")
		return
	}
	s.events.Submit(msg)
}

func verificationLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
