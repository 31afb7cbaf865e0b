package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policydash/internal/session"
	"policydash/internal/shared/testutil"
)

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil)
	status := hs.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		store      *session.Store
		wantStatus string
	}{
		{"ready with store", session.NewStore(session.Options{TTL: time.Hour}, nil), "ready"},
		{"not ready without store", nil, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			hs := NewHealthService("1.2.3", tt.store, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)

			sh, ok := status.Services["sessions"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, sh.Status)
			assert.Equal(t, tt.wantStatus != "ready", handler.ContainsMessage("readiness check failed"))
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	info := NewHealthService("1.2.3", nil, nil).Version()
	assert.Equal(t, "1.2.3", info["version"])
	assert.NotEmpty(t, info["go_version"])
}
