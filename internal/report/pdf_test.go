package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policydash/internal/dataprocessing"
	"policydash/internal/shared/testutil"
	"policydash/pkg/contracts/domain"
)

var generatedAt = time.Date(2024, 4, 1, 10, 20, 30, 0, time.UTC)

func newTestAssembler(renderer ChartRenderer) *Assembler {
	return NewAssembler(renderer, nil, nil, AssemblerOptions{Location: time.UTC})
}

func TestAssemblerPlanPageOrder(t *testing.T) {
	pages := newTestAssembler(&stubRenderer{}).Plan(mustTable(t, policiesCSV), generatedAt)
	require.Len(t, pages, 7)

	assert.Equal(t, []string{
		ReportTitle,
		"Generated: 01-04-2024 10:20",
		MetricsHeading,
		"Latest Month (March 2024): Rs.5,450",
		"Overall Total: Rs.12,450",
		"Total Policies: 5",
	}, pages[0].Texts())

	var headings []string
	for _, page := range pages[1:] {
		headings = append(headings, page.Blocks[0].Text)
	}
	assert.Equal(t, []string{
		"Category - Latest Month (March 2024)",
		"Insurers - Latest Month (March 2024)",
		"Products - Latest Month (March 2024)",
		"Managers - Latest Month (March 2024)",
		"Branches - Latest Month (March 2024)",
		"Monthly Premium Trend",
	}, headings)

	category := pages[1]
	require.Len(t, category.Blocks, 4)
	assert.Equal(t, BlockChart, category.Blocks[1].Kind)
	assert.Equal(t, "Premium by Category - March 2024", category.Blocks[1].Chart.Title)
	assert.Equal(t, "Category - Overall", category.Blocks[2].Text)
	assert.Equal(t, "Premium by Category - Overall", category.Blocks[3].Chart.Title)

	trend := pages[6].Blocks[1]
	require.Equal(t, BlockChart, trend.Kind)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, groupKeys(trend.Chart.Result))
}

func TestAssemblerPlanSkipsMissingColumns(t *testing.T) {
	table := mustTable(t, "Category,Commissionable Premium\nHealth,100\nLife,200\n")
	pages := newTestAssembler(&stubRenderer{}).Plan(table, generatedAt)

	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].Texts(), "Latest Month (Latest Period): Rs.300")
	assert.Equal(t, "Category - Latest Month (Latest Period)", pages[1].Blocks[0].Text)
}

func TestAssemblerPlanEmptyChartsArePlaceholders(t *testing.T) {
	table := mustTable(t, policiesCSV).WithRows(nil)
	pages := newTestAssembler(&stubRenderer{}).Plan(table, generatedAt)

	require.Len(t, pages, 7)
	for _, page := range pages[1:] {
		for _, block := range page.Blocks {
			assert.NotEqual(t, BlockChart, block.Kind)
		}
	}
	assert.Contains(t, pages[6].Texts(), NoDataText)
}

func TestAssemblerBuild(t *testing.T) {
	renderer := &stubRenderer{png: tinyPNG(t)}
	logger, handler := testutil.NewTestLogger(t)
	assembler := NewAssembler(renderer, dataprocessing.DefaultRegistry(), logger, AssemblerOptions{Location: time.UTC})

	artifact, err := assembler.Build(context.Background(), mustTable(t, policiesCSV), generatedAt)
	require.NoError(t, err)

	assert.Equal(t, "insurance_report_20240401_102030.pdf", artifact.Filename)
	assert.Equal(t, domain.ContentTypePDF, artifact.ContentType)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
	// Five dimension pages with two charts each, then the trend.
	assert.Len(t, renderer.titles, 11)
	assert.Equal(t, "Premium by Category - March 2024", renderer.titles[0])
	assert.Equal(t, "Monthly Premium Trend", renderer.titles[10])
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "report generated")
}

func TestAssemblerBuildAbortsOnChartFailure(t *testing.T) {
	boom := errors.New("renderer crashed")
	renderer := &stubRenderer{png: tinyPNG(t), err: boom, failOn: "Product Distribution - Overall"}

	artifact, err := newTestAssembler(renderer).Build(context.Background(), mustTable(t, policiesCSV), generatedAt)
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrChartFailed)
	assert.ErrorIs(t, err, boom)
	// Nothing after the failing chart is rendered.
	assert.Equal(t, "Product Distribution - Overall", renderer.titles[len(renderer.titles)-1])
	assert.Len(t, renderer.titles, 6)
}

func TestAssemblerBuildEmptyTable(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("must not be called")}
	artifact, err := newTestAssembler(renderer).Build(context.Background(), mustTable(t, policiesCSV).WithRows(nil), generatedAt)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
	assert.Empty(t, renderer.titles)
}

func TestAssemblerBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAssembler(&stubRenderer{png: tinyPNG(t)}).Build(ctx, mustTable(t, policiesCSV), generatedAt)
	assert.ErrorIs(t, err, context.Canceled)
}

func groupKeys(r domain.AggregationResult) []string {
	keys := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		keys[i] = g.Key
	}
	return keys
}
