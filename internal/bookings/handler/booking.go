package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"reservio/internal/auth"
	"reservio/internal/bookings/service"
	apperrors "reservio/pkg/errors"
	httputil "reservio/pkg/http"
	"reservio/pkg/logger"
	"reservio/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	authmw  *auth.Middleware
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authmw *auth.Middleware, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		authmw:  authmw,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var in model.BookingCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), principal.UserID, &in)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), id, requester(principal))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := extractFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	bookings, total, err := h.service.List(r.Context(), requester(principal), filter)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, filter.Limit, filter.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Update(r.Context(), id, requester(principal), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BookingHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := auth.RequireAdmin(r)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	var body struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "SetStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.SetStatus(r.Context(), id, requester(principal), body.Status)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	protect := h.authmw.Protect
	router.POST("/api/v1/bookings", protect(h.Create))
	router.GET("/api/v1/bookings", protect(h.List))
	router.GET("/api/v1/bookings/:id", protect(h.GetByID))
	router.PATCH("/api/v1/bookings/:id", protect(h.Update))
	router.PATCH("/api/v1/bookings/:id/status", protect(h.SetStatus))
	router.DELETE("/api/v1/bookings/:id", protect(h.Delete))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func requester(p auth.Principal) service.Requester {
	return service.Requester{UserID: p.UserID, Admin: p.IsAdmin()}
}

func extractFilter(r *http.Request) (model.BookingFilter, error) {
	var filter model.BookingFilter

	if s := r.URL.Query().Get("status"); s != "" {
		status := model.BookingStatus(s)
		filter.Status = &status
	}

	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}
