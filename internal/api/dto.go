package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/models"
)

// StoreTokenRequest hands an already issued token to the session.
type StoreTokenRequest struct {
	Token string `json:"token"`
}

// Validate validates the request.
func (r StoreTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// LoginRequest is forwarded to the backend auth endpoint.
type LoginRequest struct {
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

// Validate validates the request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mail, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is forwarded to the backend registration endpoint.
type RegisterRequest struct {
	Mail     string `json:"mail"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate validates the request.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mail, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.Role, validation.In("ROLE_USER")),
	)
}

// SessionResponse describes the current session.
type SessionResponse struct {
	authgate.Identity
	TokenType string `json:"token_type,omitempty"`
}

// RedirectResponse accompanies a guard redirect.
type RedirectResponse struct {
	Redirect string `json:"redirect"`
}

// DeniedActions are the choices offered on the access-denied view.
type DeniedActions struct {
	Home    string `json:"home"`
	SignOut string `json:"sign_out"`
}

// DeniedResponse is the access-denied view.
type DeniedResponse struct {
	Error   string        `json:"error"`
	Actions DeniedActions `json:"actions"`
}

// MindMapListResponse wraps a mind map listing.
type MindMapListResponse struct {
	MindMaps []models.MindMap `json:"mindmaps"`
	Total    int              `json:"total"`
}

// SubjectsResponse wraps the subject catalog.
type SubjectsResponse struct {
	Subjects []models.Subject `json:"subjects"`
}

// AdminOverviewResponse is the admin landing payload.
type AdminOverviewResponse struct {
	Identity authgate.Identity `json:"identity"`
	Library  mindmap.Stats     `json:"library"`
	Subjects []models.Subject  `json:"subjects"`
}
