package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"pratai-api/internal/config"
	"pratai-api/internal/core/functions"
)

type Handler struct {
	mgr *functions.Manager
	dsp *functions.Dispatcher
	cfg config.Config
	lg  zerolog.Logger
}

func NewHandler(mgr *functions.Manager, dsp *functions.Dispatcher, cfg config.Config, lg zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &Handler{mgr: mgr, dsp: dsp, cfg: cfg, lg: lg}

	r.Get("/", h.handleDiscovery)
	r.Get("/status", h.handleStatus)
	r.Get("/runtimes", h.handleListRuntimes)
	r.Get("/events", h.handleListEvents)

	r.Route("/functions", func(r chi.Router) {
		r.Post("/", h.handleCreateFunction)
		r.Get("/", h.handleListFunctions)
		r.Get("/{functionID}", h.handleGetFunction)
		r.Delete("/{functionID}", h.handleDeleteFunction)
		r.Post("/{functionID}/execute", h.handleExecuteFunction)
		r.Post("/{functionID}/stop", h.handleStopFunction)
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	return r
}

// handleCreateFunction accepts a multipart form with a zip_file part (the
// code package) and a metadata part (a JSON document) and runs the create
// workflow.
func (h *Handler) handleCreateFunction(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := tenantHeaders(r)
	if tenantID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-Tenant-ID or X-User-ID header")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPackageSize)
	if err := r.ParseMultipartForm(h.cfg.MaxPackageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	pkg, err := formFileBytes(r, "zip_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'zip_file' in form")
		return
	}
	rawMetadata, err := formFileBytes(r, "metadata")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'metadata' in form")
		return
	}

	fn, err := h.mgr.Create(r.Context(), tenantID, userID, rawMetadata, pkg)
	if err != nil {
		h.lg.Error().Err(err).Msg("create function")
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"function_id": fn.ID})
}

// handleExecuteFunction queues a run request. The 202 is an acceptance,
// not a delivery guarantee.
func (h *Handler) handleExecuteFunction(w http.ResponseWriter, r *http.Request) {
	functionID := chi.URLParam(r, "functionID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	requestID, err := h.dsp.Dispatch(r.Context(), functionID, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

func (h *Handler) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	list, err := h.mgr.List(r.Context())
	if err != nil {
		h.lg.Error().Err(err).Msg("list functions")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetFunction(w http.ResponseWriter, r *http.Request) {
	fn, err := h.mgr.Get(r.Context(), chi.URLParam(r, "functionID"))
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fn)
}

func (h *Handler) handleDeleteFunction(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Delete(r.Context(), chi.URLParam(r, "functionID")); err != nil {
		h.lg.Error().Err(err).Msg("delete function")
		h.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStopFunction(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Stop(r.Context(), chi.URLParam(r, "functionID")); err != nil {
		h.lg.Error().Err(err).Msg("stop function")
		h.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"functions": h.cfg.PublicEndpoint + "/functions",
		"runtimes":  h.cfg.PublicEndpoint + "/runtimes",
		"events":    h.cfg.PublicEndpoint + "/events",
		"status":    h.cfg.PublicEndpoint + "/status",
	})
}

// handleListRuntimes will become dynamic once user-defined runtimes land.
func (h *Handler) handleListRuntimes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []string{})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []string{"webhook", "wait_for_response"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeWorkflowError maps error kinds onto response statuses. Validation
// failures are the client's fault, unknown ids are 404, everything else is
// an internal failure of one of the backing systems.
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, functions.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, functions.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func tenantHeaders(r *http.Request) (tenantID, userID string) {
	return r.Header.Get("X-Tenant-ID"), r.Header.Get("X-User-ID")
}

func formFileBytes(r *http.Request, name string) ([]byte, error) {
	f, _, err := r.FormFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status_code": status,
		"message":     message,
	})
}
