package handlers

import (
	"errors"
	"net/http"
	"time"

	"artisanreel/internal/auth"
	"artisanreel/internal/domain"
	"artisanreel/internal/middleware"
)

// authState mirrors the form-action result the web client renders.
type authState struct {
	Message   string      `json:"message"`
	Error     string      `json:"error,omitempty"`
	Success   bool        `json:"success,omitempty"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	User      *accountDTO `json:"user,omitempty"`
}

type accountDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

func toAccountDTO(acct *domain.Account) *accountDTO {
	if acct == nil {
		return nil
	}
	return &accountDTO{
		ID:        acct.ID,
		Email:     acct.Email,
		Name:      acct.Name,
		UserType:  string(acct.UserType),
		CreatedAt: acct.CreatedAt,
	}
}

func (a *App) AuthSignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpInput
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.authFailed(w, r, "Sign up failed", err)
		return
	}
	acct, err := a.Auth.SignUp(r.Context(), req)
	if err != nil {
		a.authFailed(w, r, "Sign up failed", err)
		return
	}
	a.json(w, http.StatusCreated, authState{
		Message: "Account created successfully! You can now sign in.",
		Success: true,
		User:    toAccountDTO(acct),
	})
}

func (a *App) AuthSignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInInput
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.authFailed(w, r, "Sign in failed", err)
		return
	}
	session, err := a.Auth.SignIn(r.Context(), req)
	if err != nil {
		a.authFailed(w, r, "Sign in failed", err)
		return
	}
	expires := session.ExpiresAt
	a.json(w, http.StatusOK, authState{
		Message:   "Successfully signed in!",
		Success:   true,
		Token:     session.Token,
		ExpiresAt: &expires,
		User:      toAccountDTO(session.Account),
	})
}

func (a *App) AuthSignOut(w http.ResponseWriter, r *http.Request) {
	if err := a.Auth.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		a.authFailed(w, r, "Sign out failed", err)
		return
	}
	a.json(w, http.StatusOK, authState{Message: "Successfully signed out", Success: true})
}

func (a *App) AuthResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.authFailed(w, r, "Password reset failed", err)
		return
	}
	msg, err := a.Auth.ResetPassword(r.Context(), req.Email)
	if err != nil {
		a.authFailed(w, r, "Password reset failed", err)
		return
	}
	a.json(w, http.StatusOK, authState{Message: msg, Success: true})
}

func (a *App) AuthMe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	acct, err := a.Auth.Me(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": toAccountDTO(acct)})
}

func (a *App) authFailed(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, _ := statusFor(err)
	state := authState{Message: message, Error: publicMessage(err)}
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		state.Message = "Validation failed"
	}
	if status == http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("auth: request failed")
		state.Error = "An unexpected error occurred. Please try again."
	}
	a.json(w, status, state)
}
