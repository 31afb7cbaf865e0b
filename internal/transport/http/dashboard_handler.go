package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "policydash/internal/errors"
	policymw "policydash/internal/middleware"
	api "policydash/pkg/contracts/api/v1"
	"policydash/pkg/contracts/domain"
)

// maxMultipartMemory is the part of an upload kept in memory before the
// multipart reader spills to temporary files.
const maxMultipartMemory = 8 << 20

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// DashboardHandler serves the dashboard API. The dataset a request works on
// is selected by the session cookie.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *policymw.Validator
	query        *policymw.QueryParamValidator
	cookie       CookieOptions
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, cookie CookieOptions, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "policydash_session"
	}
	return &DashboardHandler{
		service:      service,
		validator:    policymw.NewValidator(logger),
		query:        policymw.NewQueryParamValidator(logger, errorHandler),
		cookie:       cookie,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(policymw.ContentTypeValidator("multipart/form-data"), policymw.TraceMiddleware("dashboard.upload")).Post("/upload", h.Upload)
	r.Get("/options", h.GetOptions)

	r.Group(func(r chi.Router) {
		r.Use(policymw.ContentTypeValidator("application/json"))
		r.Post("/dashboard", h.GetDashboard)
		r.Post("/charts/{chart}", h.GetChart)
		r.With(h.ExportCtx).Post("/export/{format}", h.Export)
		r.With(policymw.TraceMiddleware("dashboard.report")).Post("/report", h.Report)
	})

	r.Delete("/session", h.DeleteSession)
	return r
}

// ExportCtx rejects unknown export formats before the body is read.
func (h *DashboardHandler) ExportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := chi.URLParam(r, "format")
		for _, f := range api.ExportFormats {
			if f == format {
				next.ServeHTTP(w, r)
				return
			}
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: csv, xlsx, summary"))
	})
}

// Upload handles POST /api/upload. The multipart form carries the dataset in
// "file" and an optional "format" overriding the file extension.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	req := api.UploadRequest{Filename: header.Filename, Format: r.FormValue("format")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("request_id", reqID),
		slog.String("filename", req.Filename),
		slog.Int64("size", header.Size))

	sess, err := h.service.Upload(ctx, h.sessionID(r), req.Filename, req.Format, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.ID)

	options, err := h.service.Options(ctx, sess.ID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.UploadResponse{
		SessionID: sess.ID,
		Filename:  sess.Source,
		Load:      sess.Report,
		Options:   options,
	})
}

// GetOptions handles GET /api/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Options(r.Context(), h.sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, options)
}

// GetDashboard handles POST /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var req api.DashboardRequest
	if !h.decode(w, r, &req) {
		return
	}
	criteria, ok := h.criteria(w, r, req.FilterRequest)
	if !ok {
		return
	}
	page := req.PaginationRequest.Normalized()

	dashboard, err := h.service.Dashboard(r.Context(), h.sessionID(r), criteria, page.Page, page.PageSize)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dashboard)
}

// GetChart handles POST /api/charts/{chart}?scope=overall|latest_month and
// responds with the chart as PNG.
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.query.ValidateEnum(w, r, "scope", api.ChartScopes, string(domain.ScopeOverall))
	if !ok {
		return
	}
	var req api.FilterRequest
	if !h.decode(w, r, &req) {
		return
	}
	criteria, ok := h.criteria(w, r, req)
	if !ok {
		return
	}

	artifact, err := h.service.Chart(r.Context(), h.sessionID(r), chi.URLParam(r, "chart"), domain.ScopeName(scope), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writeArtifact(w, artifact, "inline")
}

// Export handles POST /api/export/{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.FilterRequest
	if !h.decode(w, r, &req) {
		return
	}
	criteria, ok := h.criteria(w, r, req)
	if !ok {
		return
	}

	format := domain.ExportFormat(chi.URLParam(r, "format"))
	artifact, err := h.service.Export(r.Context(), h.sessionID(r), format, criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("format", string(format)),
		slog.String("filename", artifact.Filename),
		slog.Int("bytes", len(artifact.Data)))
	writeArtifact(w, artifact, "attachment")
}

// Report handles POST /api/report
func (h *DashboardHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req api.FilterRequest
	if !h.decode(w, r, &req) {
		return
	}
	criteria, ok := h.criteria(w, r, req)
	if !ok {
		return
	}

	artifact, err := h.service.Report(r.Context(), h.sessionID(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writeArtifact(w, artifact, "attachment")
}

// DeleteSession handles DELETE /api/session. The cookie is cleared either way.
func (h *DashboardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(r)
	deleted := id != "" && h.service.DeleteSession(r.Context(), id)

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	render.JSON(w, r, api.SessionResponse{SessionID: id, Deleted: deleted})
}

// decode reads a JSON body into v and validates it. An empty body leaves v
// at its zero value, which means no filters.
func (h *DashboardHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, err)
			return false
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return false
	}
	if err := h.validator.ValidateStruct(v); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

func (h *DashboardHandler) criteria(w http.ResponseWriter, r *http.Request, req api.FilterRequest) (domain.FilterCriteria, bool) {
	criteria, err := req.Criteria()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return domain.FilterCriteria{}, false
	}
	return criteria, true
}

func (h *DashboardHandler) sessionID(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *DashboardHandler) setSessionCookie(w http.ResponseWriter, id string) {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookie.TTL > 0 {
		c.MaxAge = int(h.cookie.TTL.Seconds())
	}
	http.SetCookie(w, c)
}

// writeArtifact sends a generated file with the given disposition.
func writeArtifact(w http.ResponseWriter, a *domain.Artifact, disposition string) {
	h := w.Header()
	h.Set("Content-Type", a.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
