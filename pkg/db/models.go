package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID                pgtype.UUID
	Username          string
	Email             string
	PasswordHash      string
	CreatedAt         pgtype.Timestamptz
	EmailVerified     bool
	VerificationToken pgtype.Text
	TokenExpiry       pgtype.Timestamptz
}

type Endpoint struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	Name            string
	Url             string
	CheckIntervalMs int32
	TimeoutMs       int32
	Headers         map[string]string
	Status          string
	LastChecked     pgtype.Timestamptz
	ResponseTimeMs  pgtype.Int4
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type MonitorLog struct {
	ID             pgtype.UUID
	EndpointID     pgtype.UUID
	Timestamp      pgtype.Timestamptz
	Success        bool
	StatusCode     pgtype.Int4
	ResponseTimeMs int32
	ErrorMessage   pgtype.Text
	ErrorType      pgtype.Text
}

type Notification struct {
	ID         pgtype.UUID
	UserID     pgtype.UUID
	EndpointID pgtype.UUID
	Type       string
	Message    string
	Read       bool
	Timestamp  pgtype.Timestamptz
}
