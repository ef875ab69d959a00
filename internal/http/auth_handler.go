package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
)

type authData struct {
	User  userResource `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, &req) {
		return
	}

	u, token, err := h.auth.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, authData{User: newUserResource(u), Token: token}, "User registered successfully.")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, authData{User: newUserResource(u), Token: token}, "Logged in successfully.")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), currentUser(r).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Logged out successfully.")
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, newUserResource(currentUser(r)), "")
}
