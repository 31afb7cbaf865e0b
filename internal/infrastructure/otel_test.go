package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policydash/internal/shared/testutil"
)

func TestInitializeOTelMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "policydash-test", ServiceVersion: "test", TraceExporter: "none", EnableMetrics: true}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordUpload(ctx, "csv", 120, 3, nil)
	metrics.RecordExport(ctx, "xlsx", nil)
	metrics.RecordReport(ctx, 2*time.Second, errors.New("chart failed"))
	metrics.RecordFilter(ctx, "dashboard")
	metrics.SessionDelta(ctx, 1)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"dataset_uploads_total",
		"dataset_rows_ingested_total",
		"dataset_coercion_failures_total",
		"exports_total",
		"report_failures_total",
		"report_generation_duration_seconds",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestInitializeOTelDisabledMetrics(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordUpload(context.Background(), "csv", 1, 0, nil)
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "zipkin"}, nil)
	assert.Error(t, err)
}

func TestNilBusinessMetricsIsNoop(t *testing.T) {
	var metrics *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordUpload(ctx, "csv", 1, 1, nil)
		metrics.RecordExport(ctx, "csv", nil)
		metrics.RecordReport(ctx, time.Second, nil)
		metrics.RecordFilter(ctx, "export")
		metrics.SessionDelta(ctx, -1)
		metrics.RecordSystemError(ctx, "http")
	})
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	assert.NotPanics(t, func() { RecordError(ctx, errors.New("boom")) })
	RecordError(ctx, nil)
}
