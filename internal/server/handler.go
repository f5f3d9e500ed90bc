package server

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/ctrlchart-cli/internal/analysis"
	"github.com/KaramelBytes/ctrlchart-cli/internal/export"
	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/KaramelBytes/ctrlchart-cli/internal/preset"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Handler serves the chart API. It keeps no per-request state.
type Handler struct {
	Runner  *pipeline.Runner
	Presets *preset.Catalog
	Ingest  ingest.Options
	// MaxUploadBytes caps request bodies; 0 means 10 MiB.
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Routes returns the full router, middleware included.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger()))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/presets", h.ListPresets)
		r.Route("/charts", func(r chi.Router) {
			r.Post("/upload", h.UploadChart)
			r.Post("/paste", h.PasteChart)
		})
		r.With(render.SetContentType(render.ContentTypeJSON)).Post("/limits/paste", h.PasteLimits)
	})
	return r
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ListPresets handles GET /api/presets.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.Presets.List())
}

// PasteRequest is the JSON body of the paste endpoints.
type PasteRequest struct {
	Analysis string `json:"analysis"`
	Data     string `json:"data"`
}

// Bind implements render.Binder.
func (p *PasteRequest) Bind(r *http.Request) error {
	if strings.TrimSpace(p.Data) == "" {
		return errors.New("data is required")
	}
	return nil
}

// LimitsResponse is returned by POST /api/limits/paste.
type LimitsResponse struct {
	Limits  limits.ControlLimits `json:"limits"`
	Summary *analysis.Summary    `json:"summary"`
}

// Render implements render.Renderer.
func (l *LimitsResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// UploadChart handles POST /api/charts/upload (multipart: file, analysis).
func (h *Handler) UploadChart(w http.ResponseWriter, r *http.Request) {
	limit := h.maxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(w, r, err)
			return
		}
		h.invalid(w, r, err)
		return
	}
	name, err := h.Presets.Resolve(r.FormValue("analysis"))
	if err != nil {
		h.invalid(w, r, err)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.invalid(w, r, err)
		return
	}
	defer file.Close()

	src, err := ingest.ForFile(hdr.Filename, h.Ingest)
	if err != nil {
		h.invalid(w, r, err)
		return
	}
	res, err := h.Runner.Run(pipeline.Request{Input: file, Source: src, Analysis: name})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePDF(w, name, res.PDF)
}

// PasteChart handles POST /api/charts/paste.
func (h *Handler) PasteChart(w http.ResponseWriter, r *http.Request) {
	req, name, ok := h.bindPaste(w, r)
	if !ok {
		return
	}
	res, err := h.Runner.Run(pipeline.Request{
		Input:    strings.NewReader(req.Data),
		Source:   ingest.NewPasted(h.Ingest),
		Analysis: name,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePDF(w, name, res.PDF)
}

// PasteLimits handles POST /api/limits/paste.
func (h *Handler) PasteLimits(w http.ResponseWriter, r *http.Request) {
	req, name, ok := h.bindPaste(w, r)
	if !ok {
		return
	}
	res, err := h.Runner.Run(pipeline.Request{
		Input:    strings.NewReader(req.Data),
		Source:   ingest.NewPasted(h.Ingest),
		Analysis: name,
		SkipPDF:  true,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Render(w, r, &LimitsResponse{Limits: res.Limits, Summary: res.Summary})
}

func (h *Handler) bindPaste(w http.ResponseWriter, r *http.Request) (*PasteRequest, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())
	req := &PasteRequest{}
	if err := render.Bind(r, req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(w, r, err)
		} else {
			h.invalid(w, r, err)
		}
		return nil, "", false
	}
	name, err := h.Presets.Resolve(req.Analysis)
	if err != nil {
		h.invalid(w, r, err)
		return nil, "", false
	}
	return req, name, true
}

func writePDF(w http.ResponseWriter, analysis string, pdf []byte) {
	w.Header().Set("Content-Type", export.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(analysis)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().Debug("invalid request", zap.String("path", r.URL.Path), zap.Error(err))
	render.Render(w, r, InvalidRequest(err))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := FromError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.logger().Debug("request rejected", zap.String("path", r.URL.Path), zap.String("code", apiErr.ErrorCode), zap.Error(err))
	}
	render.Render(w, r, apiErr)
}

func (h *Handler) maxBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 10 << 20
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
