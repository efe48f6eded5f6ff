package security

import (
	"errors"
	"time"

	"endpoint-monitor/config"
	"endpoint-monitor/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(authCfg *config.AuthConfig, issuer string) (*TokenService, error) {
	if authCfg == nil || authCfg.Secret == "" {
		return nil, errors.New("security: empty token secret")
	}
	return &TokenService{
		secret: []byte(authCfg.Secret),
		expiry: time.Duration(authCfg.ExpiryMin) * time.Minute,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

func (ts *TokenService) GenerateAccessToken(userID uuid.UUID, email string) (string, time.Time, error) {
	const op = "service.token.generate_access_token"

	now := ts.now()
	expiresAt := now.Add(ts.expiry)

	claims := RequestClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, apperror.New(apperror.Internal, op, err)
	}
	return signed, expiresAt, nil
}

func (ts *TokenService) ValidateAccessToken(accessToken string) (*RequestClaims, error) {
	const op = "service.token.validate_access_token"

	claims := &RequestClaims{}

	token, err := jwt.ParseWithClaims(
		accessToken,
		claims,
		func(t *jwt.Token) (any, error) {
			return ts.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !token.Valid {
		return nil, &apperror.Error{
			Kind:    apperror.Unauthorised,
			Op:      op,
			Message: "invalid token",
			Err:     err,
		}
	}

	return claims, nil
}
