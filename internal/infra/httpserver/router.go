package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appfiles "github.com/bryanwahyu/slide-review/internal/application/files"
	appreviews "github.com/bryanwahyu/slide-review/internal/application/reviews"
	domai "github.com/bryanwahyu/slide-review/internal/domain/ai"
	"github.com/bryanwahyu/slide-review/internal/domain/deck"
	domfiles "github.com/bryanwahyu/slide-review/internal/domain/files"
	domreviews "github.com/bryanwahyu/slide-review/internal/domain/reviews"
	"github.com/bryanwahyu/slide-review/internal/middleware"
)

// maxUploadBytes caps one deck upload (in-memory multipart buffer).
const maxUploadBytes = 32 << 20

type Router struct {
	filesSvc   *appfiles.Service
	reviewsSvc *appreviews.Service
}

func NewRouter(filesSvc *appfiles.Service, reviewsSvc *appreviews.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{filesSvc: filesSvc, reviewsSvc: reviewsSvc}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/health/deep", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/me", r.wrap(r.handleMe))

		rt.Post("/files/upload", r.wrap(r.handleUpload))
		rt.Get("/files", r.wrap(r.handleListFiles))
		rt.Delete("/files/{id}", r.wrap(r.handleDeleteFile))
		rt.Post("/files/{id}/text", r.wrap(r.handleReadText))

		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/files/{id}/analyses", r.wrap(r.handleListAnalyses))
		rt.Get("/files/{id}/analyses/latest", r.wrap(r.handleLatestAnalysis))
		rt.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis))
		rt.Get("/analyses/{id}/report", r.wrap(r.handleReport))

		rt.Post("/analyses/{id}/findings", r.wrap(r.handleAppendFinding))
		rt.Patch("/findings/{id}", r.wrap(r.handlePatchFinding))
		rt.Delete("/findings/{id}", r.wrap(r.handleDeleteFinding))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap is the single funnel mapping domain errors to HTTP statuses. The
// access-control rule lives here too: an owner mismatch already surfaced
// as not-found in the domain layer, so 403 never leaks existence.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var dup *domfiles.DuplicateError
		var conv *deck.ConversionError
		var mode *domreviews.InvalidModeError
		var capErr *domai.CapabilityError
		switch {
		case errors.As(err, &dup):
			writeJSONStatus(w, http.StatusConflict, map[string]any{
				"error":            "duplicate content",
				"existing_file_id": dup.ExistingID,
			})
		case errors.As(err, &mode):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domreviews.ErrSlideNumber),
			errors.Is(err, domreviews.ErrEmptyPatch),
			errors.Is(err, domfiles.ErrUnsupportedType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &conv):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.As(err, &capErr):
			// external mode hard failure; the cause stays in the logs
			http.Error(w, "external analysis failed", http.StatusBadGateway)
		case errors.Is(err, domfiles.ErrNotFound),
			errors.Is(err, domreviews.ErrNotFound),
			errors.Is(err, domreviews.ErrAccessDenied),
			errors.Is(err, domfiles.ErrNotFoundInStore),
			errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func identity(req *http.Request) (middleware.Identity, error) {
	ident, ok := middleware.IdentityFromContext(req.Context())
	if !ok {
		return middleware.Identity{}, fmt.Errorf("no identity in request context")
	}
	return ident, nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /api/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	w.Header().Set("Cache-Control", "no-store")
	return writeJSON(w, ident)
}

// POST /api/files/upload (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return nil
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return nil
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > maxUploadBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return nil
	}

	f, err := r.filesSvc.Ingest(req.Context(), ident.OwnerID, header.Filename, raw)
	if err != nil {
		return err
	}
	middleware.IncrementUploads()
	return writeJSON(w, f)
}

// GET /api/files
func (r *Router) handleListFiles(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	list, err := r.filesSvc.List(req.Context(), ident.OwnerID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domfiles.File{}
	}
	return writeJSON(w, list)
}

// DELETE /api/files/{id}
func (r *Router) handleDeleteFile(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domfiles.FileID(chi.URLParam(req, "id"))
	if err := r.filesSvc.Delete(req.Context(), ident.OwnerID, id); err != nil {
		return err
	}
	return writeJSON(w, map[string]bool{"ok": true})
}

// POST /api/files/{id}/text
func (r *Router) handleReadText(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domfiles.FileID(chi.URLParam(req, "id"))
	text, err := r.filesSvc.ReadText(req.Context(), ident.OwnerID, id)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"content": text})
}

// POST /api/analyze
// Body: {"file_id": "...", "mode": "auto|stub|external", "rules": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	var body struct {
		FileID string `json:"file_id"`
		Mode   string `json:"mode"`
		Rules  string `json:"rules"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}
	if body.FileID == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return nil
	}

	res, err := r.reviewsSvc.Dispatch(req.Context(), appreviews.DispatchCommand{
		OwnerID:      ident.OwnerID,
		FileID:       domfiles.FileID(body.FileID),
		Mode:         body.Mode,
		RulesVersion: body.Rules,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()
	requested := strings.ToLower(strings.TrimSpace(body.Mode))
	if requested != string(domreviews.ModeStub) && res.Analysis.StrategyLabel == domreviews.StrategyStub {
		middleware.IncrementAnalysesDegraded()
	}
	return writeJSON(w, res)
}

// GET /api/files/{id}/analyses
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domfiles.FileID(chi.URLParam(req, "id"))
	list, err := r.reviewsSvc.ListAnalyses(req.Context(), ident.OwnerID, id)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domreviews.Analysis{}
	}
	return writeJSON(w, list)
}

// GET /api/files/{id}/analyses/latest
func (r *Router) handleLatestAnalysis(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domfiles.FileID(chi.URLParam(req, "id"))
	a, findings, err := r.reviewsSvc.LatestAnalysis(req.Context(), ident.OwnerID, id)
	if err != nil {
		return err
	}
	return writeJSON(w, appreviews.DispatchResult{Analysis: a, Findings: findings})
}

// GET /api/analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domreviews.AnalysisID(chi.URLParam(req, "id"))
	a, findings, err := r.reviewsSvc.GetAnalysis(req.Context(), ident.OwnerID, id)
	if err != nil {
		return err
	}
	return writeJSON(w, appreviews.DispatchResult{Analysis: a, Findings: findings})
}

// GET /api/analyses/{id}/report — findings as an xlsx download
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domreviews.AnalysisID(chi.URLParam(req, "id"))
	data, err := r.reviewsSvc.RenderReport(req.Context(), ident.OwnerID, id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, id))
	_, err = w.Write(data)
	return err
}

// POST /api/analyses/{id}/findings
func (r *Router) handleAppendFinding(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domreviews.AnalysisID(chi.URLParam(req, "id"))
	var body struct {
		SlideNumber    int    `json:"slide_number"`
		Category       string `json:"category"`
		Basis          string `json:"basis"`
		Issue          string `json:"issue"`
		Suggestion     string `json:"suggestion"`
		CorrectionType string `json:"correction_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}
	f, err := r.reviewsSvc.AppendFinding(req.Context(), ident.OwnerID, &domreviews.Finding{
		AnalysisID:     id,
		SlideNumber:    body.SlideNumber,
		Category:       body.Category,
		Basis:          body.Basis,
		Issue:          body.Issue,
		Suggestion:     body.Suggestion,
		CorrectionType: domreviews.CorrectionType(body.CorrectionType),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, f)
}

// PATCH /api/findings/{id} — only supplied fields change
func (r *Router) handlePatchFinding(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domreviews.FindingID(chi.URLParam(req, "id"))
	var patch domreviews.FindingPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}
	f, err := r.reviewsSvc.PatchFinding(req.Context(), ident.OwnerID, id, patch)
	if err != nil {
		return err
	}
	return writeJSON(w, f)
}

// DELETE /api/findings/{id}
func (r *Router) handleDeleteFinding(w http.ResponseWriter, req *http.Request) error {
	ident, err := identity(req)
	if err != nil {
		return err
	}
	id := domreviews.FindingID(chi.URLParam(req, "id"))
	if err := r.reviewsSvc.DeleteFinding(req.Context(), ident.OwnerID, id); err != nil {
		return err
	}
	return writeJSON(w, map[string]bool{"ok": true})
}
