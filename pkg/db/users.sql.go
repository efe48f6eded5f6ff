package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, username, email, password_hash, created_at, email_verified, verification_token, token_expiry`

func scanUser(row pgx.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.EmailVerified,
		&i.VerificationToken,
		&i.TokenExpiry,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, email, password_hash, verification_token, token_expiry)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

type CreateUserParams struct {
	Username          string
	Email             string
	PasswordHash      string
	VerificationToken pgtype.Text
	TokenExpiry       pgtype.Timestamptz
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.PasswordHash,
		arg.VerificationToken,
		arg.TokenExpiry,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByVerificationToken = `-- name: GetUserByVerificationToken :one
SELECT ` + userColumns + `
FROM users
WHERE verification_token = $1
`

func (q *Queries) GetUserByVerificationToken(ctx context.Context, token pgtype.Text) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByVerificationToken, token))
}

const setVerificationToken = `-- name: SetVerificationToken :one
UPDATE users
SET verification_token = $2,
    token_expiry       = $3
WHERE id = $1
  AND email_verified = FALSE
RETURNING ` + userColumns + `
`

type SetVerificationTokenParams struct {
	ID                pgtype.UUID
	VerificationToken pgtype.Text
	TokenExpiry       pgtype.Timestamptz
}

func (q *Queries) SetVerificationToken(ctx context.Context, arg SetVerificationTokenParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, setVerificationToken, arg.ID, arg.VerificationToken, arg.TokenExpiry))
}

const markEmailVerified = `-- name: MarkEmailVerified :one
UPDATE users
SET email_verified     = TRUE,
    verification_token = NULL,
    token_expiry       = NULL
WHERE id = $1
RETURNING ` + userColumns + `
`

func (q *Queries) MarkEmailVerified(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, markEmailVerified, id))
}
