// Package httphandler is the HTTP driving adapter serving the presentation
// boundary: snapshot reads, action dispatch, and change notifications. The
// presentation layer never touches the network directly; everything goes
// through the engine.
package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/repodeck/internal/application"
	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	cache      *application.Cache
	dispatcher *application.Dispatcher
	syncSvc    *application.SyncService
	credSvc    *application.CredentialService
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	cache *application.Cache,
	dispatcher *application.Dispatcher,
	syncSvc *application.SyncService,
	credSvc *application.CredentialService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cache:      cache,
		dispatcher: dispatcher,
		syncSvc:    syncSvc,
		credSvc:    credSvc,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/v1/activity", h.GetActivity)
	mux.HandleFunc("POST /api/v1/activity/acknowledge", h.Acknowledge)
	mux.HandleFunc("POST /api/v1/actions", h.DispatchAction)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("POST /api/v1/pause", h.Pause)
	mux.HandleFunc("POST /api/v1/resume", h.Resume)
	mux.HandleFunc("GET /api/v1/events", h.Events)
	mux.HandleFunc("PUT /api/v1/credentials", h.SetCredentials)
	mux.HandleFunc("DELETE /api/v1/credentials", h.ClearCredentials)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetSnapshot returns the full current cache snapshot.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.cache.Snapshot()))
}

// GetActivity returns just the activity badge counts.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toActivityResponse(h.cache.Snapshot().Activity))
}

// Acknowledge resets the new-commit count to zero.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.cache.Acknowledge()
	writeJSON(w, http.StatusOK, toActivityResponse(h.cache.Snapshot().Activity))
}

// DispatchAction executes a mutating action and returns the confirmed result.
func (h *Handler) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := toActionRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.dispatcher.Dispatch(r.Context(), action)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(updated))
}

// Refresh triggers an immediate refresh, bypassing the polling interval.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.syncSvc.Refresh(r.Context()); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.cache.Snapshot()))
}

// Pause suspends scheduled polling (e.g. when the window is hidden).
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.syncSvc.Pause(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Resume re-enables scheduled polling.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.syncSvc.Resume(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Events streams server-sent events, one per cache update, so the GUI can
// re-render without polling the snapshot endpoint.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := h.cache.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeEvent := func() {
		snap := h.cache.Snapshot()
		fmt.Fprintf(w, "data: {\"generation\":%d,\"sync_status\":%q}\n\n", snap.Generation, snap.SyncStatus)
		flusher.Flush()
	}
	writeEvent()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			writeEvent()
		}
	}
}

// SetCredentials validates and stores a new credential pair. The token is
// never echoed back or logged.
func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req SetCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.credSvc.Set(r.Context(), req.Username, req.Token); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCredentials removes the stored credential pair.
func (h *Handler) ClearCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.credSvc.Clear(r.Context()); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health returns a liveness response for the healthcheck binary.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeEngineError maps engine taxonomy errors onto HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *model.ActionRejectedError
	var rateLimited *model.RateLimitedError

	switch {
	case errors.Is(err, model.ErrAlreadyInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrNotConfigured), errors.Is(err, model.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimited.RetryAfter.Seconds())))
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, model.ErrNetworkTransient):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, model.ErrStorageFailure):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// toActionRequest converts the JSON body to a domain ActionRequest.
func toActionRequest(req ActionRequest) (model.ActionRequest, error) {
	var kind model.EntityKind
	switch req.TargetKind {
	case "pull_request", "pr":
		kind = model.EntityKindPullRequest
	case "issue":
		kind = model.EntityKindIssue
	default:
		return model.ActionRequest{}, fmt.Errorf("unknown target kind %q", req.TargetKind)
	}

	reactTo := model.ReactionTargetEntity
	if req.ReactTo == string(model.ReactionTargetLastComment) {
		reactTo = model.ReactionTargetLastComment
	}

	return model.ActionRequest{
		Target:      model.EntityRef{Kind: kind, Number: req.Number},
		Kind:        model.ActionKind(req.Kind),
		Body:        req.Body,
		MergeMethod: req.MergeMethod,
		Reaction:    req.Reaction,
		ReactTo:     reactTo,
	}, nil
}
