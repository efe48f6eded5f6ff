package user

import (
	middle "endpoint-monitor/internals/middleware"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, authMW *middle.AuthMiddleware) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.LogIn)
	r.Post("/verify-email", h.VerifyEmail)
	r.Post("/resend-verification-email", h.ResendVerification)
	r.With(authMW.Handle).Get("/me", h.GetProfile)

	return r
}

/*
- POST: /users/register  -> register user
	req auth : false
	body : RegisterRequest
	resp : RegisterResponse

- POST: /users/login   -> login user
	req auth : false
	body : LogInRequest
	resp : LogInResponse

- POST: /users/verify-email -> consume a verification token
	req auth : false
	body : VerifyEmailRequest
	resp : GetProfileResponse

- POST: /users/resend-verification-email -> issue a new token (202, same answer for unknown emails)
	req auth : false
	body : ResendVerificationRequest

- GET: /users/me -> get user profile
	req auth : true
	resp : GetProfileResponse
*/
