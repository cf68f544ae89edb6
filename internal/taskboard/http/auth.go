package http

import (
	"encoding/json"
	"net/http"

	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/httpx"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

type AuthHandler struct {
	AuthService *service.AuthService
	DevMode     bool
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// HandleRegister creates an account and logs it in.
//
//	@Summary		Register a new account
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.RegisterRequest	true	"Registration details"
//	@Success		201		{object}	taskboardsdk.AuthData
//	@Failure		400		{object}	taskboardsdk.APIError	"Validation failure or duplicate email"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, pair, err := h.AuthService.Register(r.Context(), validate.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	dto := userDTO(user)
	httpx.NoCache(w)
	writeData(w, http.StatusCreated, "Account created", taskboardsdk.AuthData{
		User:         &dto,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

// HandleLogin exchanges credentials for a token pair.
//
//	@Summary		Log in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.LoginRequest	true	"Credentials, plus otp when 2FA is enabled"
//	@Success		200		{object}	taskboardsdk.AuthData
//	@Failure		401		{object}	taskboardsdk.APIError	"Bad credentials, disabled account, or missing one-time code"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, pair, err := h.AuthService.Login(r.Context(), validate.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, req.OTP)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	dto := userDTO(user)
	httpx.NoCache(w)
	writeData(w, http.StatusOK, "Logged in", taskboardsdk.AuthData{
		User:         &dto,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

// HandleRefresh rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.RefreshRequest	true	"Current refresh token"
//	@Success		200		{object}	taskboardsdk.AuthData
//	@Failure		401		{object}	taskboardsdk.APIError	"Unknown, revoked, or expired token"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	httpx.NoCache(w)
	writeData(w, http.StatusOK, "Tokens refreshed", taskboardsdk.AuthData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

// HandleLogout revokes the presented refresh token. Idempotent.
//
//	@Summary		Log out
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.RefreshRequest	true	"Refresh token to revoke"
//	@Success		200		{object}	nil
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

// HandleMe returns the caller's profile.
//
//	@Summary		Current user
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	taskboardsdk.User
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Me(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	httpx.NoCache(w)
	writeData(w, http.StatusOK, "", userDTO(user))
}

// HandleUpdateProfile edits the caller's own profile.
//
//	@Summary		Update profile
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.ProfileUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	taskboardsdk.User
//	@Failure		400		{object}	taskboardsdk.APIError	"Validation failure or duplicate email"
//	@Router			/api/auth/profile [put].
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.ProfileUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.AuthService.UpdateProfile(r.Context(), httpx.UserIDFromCtx(r.Context()), validate.ProfileUpdateInput{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "Profile updated", userDTO(user))
}

// HandleChangePassword rotates the caller's password and revokes all
// refresh tokens.
//
//	@Summary		Change password
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	nil
//	@Failure		401		{object}	taskboardsdk.APIError	"Current password wrong"
//	@Router			/api/auth/password [put].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.AuthService.ChangePassword(r.Context(), httpx.UserIDFromCtx(r.Context()), validate.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed; please log in again")
}

// HandleEnrollTOTP starts two-factor enrollment.
//
//	@Summary		Enroll TOTP
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	taskboardsdk.TOTPEnrollData
//	@Router			/api/auth/totp/enroll [post].
func (h *AuthHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	enroll, err := h.AuthService.EnrollTOTP(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	httpx.NoCache(w)
	writeData(w, http.StatusOK, "Scan the code, then activate", taskboardsdk.TOTPEnrollData{
		Secret:     enroll.Secret,
		OTPAuthURL: enroll.OTPAuthURL,
	})
}

// HandleActivateTOTP verifies a code and turns the second factor on.
//
//	@Summary		Activate TOTP
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.TOTPCodeRequest	true	"Current TOTP code"
//	@Success		200		{object}	nil
//	@Router			/api/auth/totp/activate [post].
func (h *AuthHandler) HandleActivateTOTP(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.TOTPCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.AuthService.ActivateTOTP(r.Context(), httpx.UserIDFromCtx(r.Context()), req.Code); err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "Two-factor authentication enabled")
}

// HandleDisableTOTP removes the second factor.
//
//	@Summary		Disable TOTP
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.TOTPCodeRequest	true	"Current TOTP code"
//	@Success		200		{object}	nil
//	@Router			/api/auth/totp/disable [post].
func (h *AuthHandler) HandleDisableTOTP(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.TOTPCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.AuthService.DisableTOTP(r.Context(), httpx.UserIDFromCtx(r.Context()), req.Code); err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "Two-factor authentication disabled")
}
