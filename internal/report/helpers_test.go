package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"policydash/internal/dataprocessing"
	"policydash/pkg/contracts/domain"
)

const policiesCSV = `Category,Insurer Name,Agent Name,Branch Name,Manager Name,Product,Issued Date,Commissionable Premium
Health,Acme,Asha,North,Mehta,Care Plus,2024-01-15,1200
Life,Zenith,Ravi,South,Iyer,Term Shield,2024-02-02,5000
Health,Zenith,Asha,North,Mehta,Care Plus,2024-02-28,800
Motor,Acme,Kiran,East,Iyer,Drive Safe,2024-03-01,450
Life,Acme,Ravi,South,Iyer,Term Shield,2024-03-18,5000
`

func mustTable(t *testing.T, data string) *domain.Table {
	t.Helper()
	table, _, err := dataprocessing.NewParser(nil).Parse(strings.NewReader(data), domain.IngestFormatCSV)
	require.NoError(t, err)
	return table
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

// stubRenderer records requested charts and returns a fixed image or error.
type stubRenderer struct {
	mu     sync.Mutex
	png    []byte
	err    error
	failOn string
	titles []string
}

func (s *stubRenderer) Render(_ context.Context, chart Chart) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, chart.Title)
	if s.err != nil && (s.failOn == "" || s.failOn == chart.Title) {
		return nil, s.err
	}
	return s.png, nil
}
