package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/config"
	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
	"github.com/riyazashik07/ai-document-analyser/internal/observability/metrics"
)

const (
	multipartMemoryLimit = 32 << 20
	maxAskBodyBytes      = 64 << 10
)

type Router struct {
	cfg      config.Config
	analyzer ports.DocumentAnalyzer
	exporter ports.FieldsExporter
	sessions *SessionManager
	metrics  *metrics.HTTPServerMetrics
}

// NewRouter wires the HTTP surface. exporter and httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	analyzer ports.DocumentAnalyzer,
	exporter ports.FieldsExporter,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		analyzer: analyzer,
		exporter: exporter,
		sessions: NewSessionManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute),
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", rt.health)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	api := func(h http.HandlerFunc) http.Handler {
		return rt.sessions.Middleware(h)
	}
	mux.Handle("POST /api/upload", api(rt.upload))
	mux.Handle("POST /api/ask", api(rt.ask))
	mux.Handle("GET /api/history", api(rt.history))
	mux.Handle("POST /api/history/clear", api(rt.clearHistory))
	mux.Handle("GET /api/extracted", api(rt.extracted))
	mux.Handle("GET /api/extracted/export", api(rt.exportExtracted))

	if dir := strings.TrimSpace(rt.cfg.StaticDir); dir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dir)))
	}

	var handler http.Handler = mux
	handler = timeoutMiddleware(handler, time.Duration(rt.cfg.RequestTimeoutSeconds)*time.Second)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(rt.cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rt.writeError(w, r, err)
			return
		}
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("multipart field 'file' is required")))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		rt.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveUpload(len(content))
	}

	doc, err := rt.analyzer.Upload(r.Context(), sessionIDFromContext(r.Context()), domain.UploadRequest{
		Filename:  fileHeader.Filename,
		MediaType: resolveMediaType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename, content),
		Content:   content,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extracted": doc.Fields})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rt.writeError(w, r, err)
			return
		}
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("invalid json")))
		return
	}

	turn, err := rt.analyzer.Ask(r.Context(), sessionIDFromContext(r.Context()), req.Question)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": turn.Answer})
}

func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	history, err := rt.analyzer.History(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (rt *Router) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := rt.analyzer.ClearHistory(r.Context(), sessionIDFromContext(r.Context())); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) extracted(w http.ResponseWriter, r *http.Request) {
	fields, err := rt.analyzer.Extracted(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var payload any
	if fields != nil {
		payload = *fields
	}
	writeJSON(w, http.StatusOK, map[string]any{"extracted": payload})
}

func (rt *Router) exportExtracted(w http.ResponseWriter, r *http.Request) {
	if rt.exporter == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "export is not enabled"})
		return
	}
	doc, err := rt.analyzer.Document(r.Context(), sessionIDFromContext(r.Context()))
	if domain.IsKind(err, domain.ErrNoDocument) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "nothing has been extracted yet"})
		return
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	data, err := rt.exporter.ExportFields(doc)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(doc.Filename), filepath.Ext(doc.Filename))
	if name == "" || name == "." {
		name = "document"
	}
	w.Header().Set("Content-Type", rt.exporter.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": name + "-fields" + rt.exporter.FileExtension(),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, status)})
}

// resolveMediaType trusts the declared part type unless it is missing or
// generic, then falls back to the file extension and finally to sniffing.
func resolveMediaType(declared, filename string, content []byte) string {
	if mt := baseMediaType(declared); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if mt := baseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))); mt != "" {
		return mt
	}
	return baseMediaType(http.DetectContentType(content))
}

func baseMediaType(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mt
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
