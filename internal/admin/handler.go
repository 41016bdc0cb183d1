package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/httputil"
	adminmw "didgate/pkg/platform/middleware/admin"
	"didgate/pkg/requestcontext"
)

const maxBodyBytes = 64 << 10

// Manager is the admin service as the handler sees it.
type Manager interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (*directory.Service, error)
	CreateKey(ctx context.Context, serviceID id.ServiceID, req CreateKeyRequest) (*KeyResponse, error)
	SetDefinition(ctx context.Context, serviceID id.ServiceID, req DefinitionRequest) (*directory.Definition, error)
}

type Handler struct {
	manager Manager
	token   string
	logger  *slog.Logger
}

// NewHandler gates every route behind token.
func NewHandler(manager Manager, token string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{manager: manager, token: token, logger: logger}
}

// Register mounts the admin API under /admin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.token, h.logger))
		r.Post("/services", h.handleCreateService)
		r.Post("/services/{id}/keys", h.handleCreateKey)
		r.Put("/services/{id}/definition", h.handleSetDefinition)
	})
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, err := h.manager.CreateService(r.Context(), req)
	if err != nil {
		h.fail(r.Context(), w, "create service failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, svc)
}

func (h *Handler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := h.serviceID(w, r)
	if !ok {
		return
	}
	var req CreateKeyRequest
	if !h.decode(w, r, &req) {
		return
	}
	key, err := h.manager.CreateKey(r.Context(), serviceID, req)
	if err != nil {
		h.fail(r.Context(), w, "create key failed", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusCreated, key)
}

func (h *Handler) handleSetDefinition(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := h.serviceID(w, r)
	if !ok {
		return
	}
	var req DefinitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	def, err := h.manager.SetDefinition(r.Context(), serviceID, req)
	if err != nil {
		h.fail(r.Context(), w, "set definition failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) serviceID(w http.ResponseWriter, r *http.Request) (id.ServiceID, bool) {
	serviceID, err := id.ParseServiceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ServiceID{}, false
	}
	return serviceID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid admin request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if httputil.StatusFor(dErrors.GetCode(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
