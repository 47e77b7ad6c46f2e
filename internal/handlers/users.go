package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/services"
)

type userResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"is_admin"`
	IsVerified   bool      `json:"is_verified"`
	ProfileImage string    `json:"profile_image"`
}

func toUserResponse(user *db.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
		IsVerified:   user.IsVerified,
		ProfileImage: user.ProfileImage,
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, toUserResponse(user))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearCookie(w)
	h.writeJSON(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.VerifyAccount(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.userService.ResendOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"message": "verification code sent"})
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"message": "reset code sent if the account exists"})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Email, req.OTP, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	h.writeJSON(w, r, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req struct {
		Username     string `json:"username"`
		Email        string `json:"email"`
		ProfileImage string `json:"profile_image"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, services.UpdateProfileInput{
		Username:     req.Username,
		Email:        req.Email,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toUserResponse(updated))
}

func (h *Handlers) issueSession(w http.ResponseWriter, userID uuid.UUID) error {
	now := time.Now()
	token, err := h.tokens.Issue(userID, now)
	if err != nil {
		return err
	}
	h.tokens.SetCookie(w, token, now)
	return nil
}
