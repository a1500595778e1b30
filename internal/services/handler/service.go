package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"reservio/internal/auth"
	"reservio/internal/services/service"
	apperrors "reservio/pkg/errors"
	httputil "reservio/pkg/http"
	"reservio/pkg/logger"
	"reservio/pkg/model"
)

type ServiceHandler struct {
	service service.CatalogService
	authmw  *auth.Middleware
	log     *logger.Logger
}

func NewServiceHandler(service service.CatalogService, authmw *auth.Middleware, log *logger.Logger) *ServiceHandler {
	return &ServiceHandler{
		service: service,
		authmw:  authmw,
		log:     log,
	}
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := auth.RequireAdmin(r); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var in model.Service
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}
	in.ID = 0

	svc, err := h.service.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, svc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	svc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, svc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := extractFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	services, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, services, total, filter.Limit, filter.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *ServiceHandler) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := auth.RequireAdmin(r); err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	var in model.ServicePatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Patch", apperrors.InvalidInput("Invalid request body"))
		return
	}

	svc, err := h.service.Patch(r.Context(), id, &in)
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	if err := httputil.WriteSuccess(w, svc); err != nil {
		h.log.Error("failed to write success response", "handler", "Patch", "error", err)
	}
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := auth.RequireAdmin(r); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Reads are public; mutations go through the auth middleware and an
// explicit admin check.
func (h *ServiceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/services", h.List)
	router.GET("/api/v1/services/:id", h.GetByID)
	router.POST("/api/v1/services", h.authmw.Protect(h.Create))
	router.PATCH("/api/v1/services/:id", h.authmw.Protect(h.Patch))
	router.DELETE("/api/v1/services/:id", h.authmw.Protect(h.Delete))
}

func (h *ServiceHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func extractFilter(r *http.Request) (model.ServiceFilter, error) {
	var filter model.ServiceFilter
	query := r.URL.Query()

	filter.Query = query.Get("q")

	priceMin, err := extractFloat(query.Get("price_min"), "price_min")
	if err != nil {
		return filter, err
	}
	filter.PriceMin = priceMin

	priceMax, err := extractFloat(query.Get("price_max"), "price_max")
	if err != nil {
		return filter, err
	}
	filter.PriceMax = priceMax

	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.InvalidInput("active must be a boolean")
		}
		filter.Active = &active
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}

func extractFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.InvalidInput(name + " must be a number")
	}
	return &value, nil
}
