package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"reservio/internal/auth"
	"reservio/internal/users/service"
	apperrors "reservio/pkg/errors"
	httputil "reservio/pkg/http"
	"reservio/pkg/logger"
	"reservio/pkg/model"
)

type UserHandler struct {
	service service.UserService
	authmw  *auth.Middleware
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, authmw *auth.Middleware, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		authmw:  authmw,
		log:     log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.UserRegister
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Register", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), &in)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("Invalid request body"))
		return
	}

	pair, err := h.service.Login(r.Context(), &in)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		h.writeError(w, "Refresh", apperrors.InvalidInput("refresh_token is required"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		h.writeError(w, "Refresh", err)
		return
	}

	if err := httputil.WriteSuccess(w, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Refresh", "error", err)
	}
}

// Logout exists for API symmetry. Tokens are stateless, so the server
// has nothing to revoke; clients discard their pair.
func (h *UserHandler) Logout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteNoContent(w)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	user, err := h.service.GetByID(r.Context(), principal.UserID)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "error", err)
	}
}

func (h *UserHandler) PatchMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := auth.RequirePrincipal(r)
	if err != nil {
		h.writeError(w, "PatchMe", err)
		return
	}

	var in model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "PatchMe", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Patch(r.Context(), principal.UserID, &in)
	if err != nil {
		h.writeError(w, "PatchMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "PatchMe", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/refresh", h.Refresh)
	router.POST("/api/v1/auth/logout", h.Logout)
	router.GET("/api/v1/me", h.authmw.Protect(h.Me))
	router.PATCH("/api/v1/me", h.authmw.Protect(h.PatchMe))
}

func (h *UserHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}
