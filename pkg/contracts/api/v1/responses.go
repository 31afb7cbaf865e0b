package api

import (
	"policydash/pkg/contracts/domain"
)

// UploadResponse describes a loaded dataset.
type UploadResponse struct {
	SessionID string               `json:"session_id"`
	Filename  string               `json:"filename"`
	Load      domain.LoadReport    `json:"load"`
	Options   domain.FilterOptions `json:"options"`
}

// SessionResponse acknowledges a session operation.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Deleted   bool   `json:"deleted"`
}
