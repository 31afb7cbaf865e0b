package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policydash/pkg/contracts/domain"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func sampleResult(metric domain.Metric) domain.AggregationResult {
	return domain.AggregationResult{
		Dimension: domain.ColumnInsurerName,
		Metric:    metric,
		Scope:     domain.ScopeOverall,
		Groups: []domain.GroupValue{
			{Key: "Acme", Value: 6650},
			{Key: "Zenith", Value: 5800},
			{Key: "Orbit", Value: 300},
		},
		Total: 12750,
	}
}

func TestPlotRendererRender(t *testing.T) {
	tests := []struct {
		name   string
		kind   domain.ChartKind
		metric domain.Metric
	}{
		{"vertical bar", domain.ChartBar, domain.MetricPremiumSum},
		{"horizontal bar", domain.ChartHorizontalBar, domain.MetricPremiumSum},
		{"pie", domain.ChartPie, domain.MetricRowCount},
	}
	renderer := NewPlotRenderer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := renderer.Render(context.Background(), Chart{
				Title:  "Top 10 Insurers - Overall",
				Kind:   tt.kind,
				Result: sampleResult(tt.metric),
			})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, pngSignature), "output is not a PNG")
		})
	}
}

func TestPlotRendererManyBarsRotatesLabels(t *testing.T) {
	result := domain.AggregationResult{Metric: domain.MetricPremiumSum}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		result.Groups = append(result.Groups, domain.GroupValue{Key: k, Value: 10})
	}
	data, err := NewPlotRenderer(nil).Render(context.Background(), Chart{Title: "Branches", Kind: domain.ChartBar, Result: result})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))
}

func TestPlotRendererEmptyChart(t *testing.T) {
	_, err := NewPlotRenderer(nil).Render(context.Background(), Chart{
		Title:  "Premium by Category - March 2024",
		Kind:   domain.ChartBar,
		Result: domain.AggregationResult{Metric: domain.MetricPremiumSum},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyChart))
}

func TestPlotRendererZeroPie(t *testing.T) {
	_, err := NewPlotRenderer(nil).Render(context.Background(), Chart{
		Title: "Product Distribution",
		Kind:  domain.ChartPie,
		Result: domain.AggregationResult{
			Metric: domain.MetricPremiumSum,
			Groups: []domain.GroupValue{{Key: "Care Plus", Value: 0}},
		},
	})
	assert.ErrorIs(t, err, ErrEmptyChart)
}

func TestPlotRendererPlaceholder(t *testing.T) {
	data, err := NewPlotRenderer(nil).RenderPlaceholder(context.Background(), Chart{Title: "Top 10 Managers", Kind: domain.ChartBar})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))
}

func TestPlotRendererCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPlotRenderer(nil).Render(ctx, Chart{Title: "x", Kind: domain.ChartBar, Result: sampleResult(domain.MetricPremiumSum)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAspectRatio(t *testing.T) {
	assert.InDelta(t, 5.0/12.0, AspectRatio(domain.ChartBar), 1e-9)
	assert.InDelta(t, 0.5, AspectRatio(domain.ChartHorizontalBar), 1e-9)
	assert.InDelta(t, 0.6, AspectRatio(domain.ChartPie), 1e-9)
	assert.InDelta(t, AspectRatio(domain.ChartBar), AspectRatio("unknown"), 1e-9)
}
