// Package handlers contains all HTTP handlers for the API.
package handlers

import (
	"github.com/buzzboard/backend/internal/auth"
	"github.com/buzzboard/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth     auth.AuthServiceInterface
	uploader *storage.S3Uploader
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.AuthServiceInterface) *Handlers {
	return &Handlers{
		auth: authService,
	}
}

// SetUploader sets the S3 uploader for image endpoints. Left nil in
// deployments without S3 credentials; those endpoints then return 503.
func (h *Handlers) SetUploader(uploader *storage.S3Uploader) {
	h.uploader = uploader
}
