package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profiles Profiles
	auth     Auth
	timeout  time.Duration
}

func NewProfileHandler(profiles Profiles, auth Auth, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		auth:     auth,
		timeout:  timeout,
	}
}

type UsersResponse struct {
	Users []domain.UserProfile `json:"users"`
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := getIdentity(r.Context())
	h.getUser(w, r, id.UserID)
}

// PUT /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u repository.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	// the sign-in email is changed through user administration
	u.Email = nil

	id, _ := getIdentity(r.Context())
	h.updateUser(w, r, id.UserID, u)
}

// DELETE /api/v1/profile
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := getIdentity(r.Context())
	h.deleteUser(w, r, id.UserID)
}

// GET /api/v1/users
func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	users, err := h.profiles.List(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &UsersResponse{Users: users})
}

// POST /api/v1/users
func (h *ProfileHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id, err := h.auth.CreateUser(ctx, identity.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, id)
}

// GET /api/v1/users/{id}
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.getUser(w, r, chi.URLParam(r, "id"))
}

// PUT /api/v1/users/{id}
func (h *ProfileHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var u repository.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.updateUser(w, r, chi.URLParam(r, "id"), u)
}

// DELETE /api/v1/users/{id}
func (h *ProfileHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.deleteUser(w, r, chi.URLParam(r, "id"))
}

func (h *ProfileHandler) getUser(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) updateUser(w http.ResponseWriter, r *http.Request, userID string, u repository.ProfileUpdate) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.profiles.UpdateProfile(ctx, userID, u)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// deleteUser removes the profile and signs the user out of every session.
func (h *ProfileHandler) deleteUser(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.profiles.Delete(ctx, userID); err != nil {
		handleError(w, r, err)
		return
	}
	h.auth.SignOutUser(userID)

	w.WriteHeader(http.StatusNoContent)
}
