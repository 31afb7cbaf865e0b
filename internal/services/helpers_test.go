package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"policydash/internal/report"
	"policydash/internal/session"
)

const policiesCSV = `Category,Insurer Name,Agent Name,Branch Name,Manager Name,Product,Issued Date,Commissionable Premium
Health,Acme,Asha,North,Mehta,Care Plus,2024-01-15,1200
Life,Zenith,Ravi,South,Iyer,Term Shield,2024-02-02,5000
Health,Zenith,Asha,North,Mehta,Care Plus,2024-02-28,800
Motor,Acme,Kiran,East,Iyer,Drive Safe,2024-03-01,450
Life,Acme,Ravi,South,Iyer,Term Shield,2024-03-18,5000
`

var fixedNow = time.Date(2024, 4, 1, 10, 20, 30, 0, time.UTC)

// stubRenderer returns a fixed PNG, optionally failing or blocking until
// release is closed.
type stubRenderer struct {
	mu           sync.Mutex
	png          []byte
	err          error
	release      chan struct{}
	renders      []string
	placeholders []string
}

func (s *stubRenderer) Render(ctx context.Context, chart report.Chart) ([]byte, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, chart.Title)
	if s.err != nil {
		return nil, s.err
	}
	return s.png, nil
}

func (s *stubRenderer) RenderPlaceholder(ctx context.Context, chart report.Chart) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholders = append(s.placeholders, chart.Title)
	return s.png, nil
}

func (s *stubRenderer) renderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.renders)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 70, G: 130, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(t *testing.T, renderer *stubRenderer, opts DashboardOptions) (*DashboardService, *session.Store) {
	t.Helper()
	if renderer.png == nil {
		renderer.png = tinyPNG(t)
	}
	store := session.NewStore(session.Options{MaxSessions: 8, TTL: time.Hour}, nil)
	opts.Renderer = renderer
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewDashboardService(store, opts, nil), store
}

func mustUpload(t *testing.T, svc *DashboardService, sessionID, data string) *session.Session {
	t.Helper()
	sess, err := svc.Upload(context.Background(), sessionID, "policies.csv", "", bytes.NewBufferString(data))
	require.NoError(t, err)
	return sess
}
