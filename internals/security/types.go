package security

import "github.com/golang-jwt/jwt/v5"

// RequestClaims carries the user id in the registered "sub" claim.
type RequestClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
