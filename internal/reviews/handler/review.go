package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"reservio/internal/auth"
	"reservio/internal/reviews/service"
	apperrors "reservio/pkg/errors"
	httputil "reservio/pkg/http"
	"reservio/pkg/logger"
	"reservio/pkg/model"
)

type ReviewHandler struct {
	service service.ReviewService
	authmw  *auth.Middleware
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, authmw *auth.Middleware, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		authmw:  authmw,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var in model.ReviewCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	review, err := h.service.Create(r.Context(), principal.UserID, &in)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	review, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ReviewHandler) ListByService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serviceID, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListByService", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByService", err)
		return
	}

	reviews, total, err := h.service.ListByService(r.Context(), serviceID, limit, offset)
	if err != nil {
		h.writeError(w, "ListByService", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByService", "error", err)
	}
}

func (h *ReviewHandler) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	var in model.ReviewPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Patch", apperrors.InvalidInput("Invalid request body"))
		return
	}

	review, err := h.service.Patch(r.Context(), id, requester(principal), &in)
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Patch", "error", err)
	}
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), id, requester(principal)); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reviews", h.authmw.Protect(h.Create))
	router.GET("/api/v1/reviews/:id", h.GetByID)
	router.GET("/api/v1/services/:id/reviews", h.ListByService)
	router.PATCH("/api/v1/reviews/:id", h.authmw.Protect(h.Patch))
	router.DELETE("/api/v1/reviews/:id", h.authmw.Protect(h.Delete))
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func requester(p auth.Principal) service.Requester {
	return service.Requester{UserID: p.UserID, Admin: p.IsAdmin()}
}
