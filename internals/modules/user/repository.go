package user

import (
	"context"

	"endpoint-monitor/pkg/db"
	"endpoint-monitor/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

type repository struct {
	querier *db.Queries
	logger  *zerolog.Logger
}

func NewRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *repository {
	return &repository{
		querier: db.New(dbExecutor),
		logger:  logger,
	}
}

func (r *repository) CreateUser(ctx context.Context, user CreateUserCmd, passwordHash string, v Verification) (uuid.UUID, error) {
	const op string = "repo.user.create_user"

	id, err := r.querier.CreateUser(ctx, db.CreateUserParams{
		Username:          user.Username,
		Email:             user.Email,
		PasswordHash:      passwordHash,
		VerificationToken: pgtype.Text{String: v.TokenHash, Valid: v.TokenHash != ""},
		TokenExpiry:       utils.ToPgTimestamptz(v.ExpiresAt),
	})
	if err != nil {
		return uuid.UUID{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return utils.FromPgUUID(id), nil
}

func (r *repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	const op string = "repo.user.get_user_by_id"

	user, err := r.querier.GetUserByID(ctx, utils.ToPgUUID(userID))
	if err != nil {
		return User{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toUser(user), nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op string = "repo.user.get_user_by_email"

	user, err := r.querier.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toUser(user), nil
}

func (r *repository) GetUserByVerificationToken(ctx context.Context, tokenHash string) (User, error) {
	const op string = "repo.user.get_user_by_verification_token"

	user, err := r.querier.GetUserByVerificationToken(ctx, pgtype.Text{String: tokenHash, Valid: true})
	if err != nil {
		return User{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toUser(user), nil
}

// SetVerificationToken replaces the pending token. Verified users have no
// row to update and come back as not_found.
func (r *repository) SetVerificationToken(ctx context.Context, userID uuid.UUID, v Verification) (User, error) {
	const op string = "repo.user.set_verification_token"

	user, err := r.querier.SetVerificationToken(ctx, db.SetVerificationTokenParams{
		ID:                utils.ToPgUUID(userID),
		VerificationToken: pgtype.Text{String: v.TokenHash, Valid: true},
		TokenExpiry:       utils.ToPgTimestamptz(v.ExpiresAt),
	})
	if err != nil {
		return User{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toUser(user), nil
}

func (r *repository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) (User, error) {
	const op string = "repo.user.mark_email_verified"

	user, err := r.querier.MarkEmailVerified(ctx, utils.ToPgUUID(userID))
	if err != nil {
		return User{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toUser(user), nil
}

func toUser(u db.User) User {
	return User{
		ID:            utils.FromPgUUID(u.ID),
		Username:      u.Username,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		EmailVerified: u.EmailVerified,
		TokenExpiry:   utils.FromPgTimestamptz(u.TokenExpiry),
		CreatedAt:     utils.FromPgTimestamptz(u.CreatedAt),
	}
}
