package directory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/strataboard/strataboard/internal/platform/httpx"
	"github.com/strataboard/strataboard/internal/rbac"
	"github.com/strataboard/strataboard/internal/shared"
)

// Handler manages tenancy directory endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	mw       rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validate: validator.New()}
}

// MountRoutes registers directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermCompaniesView))
		r.Get("/companies", h.listCompanies)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermProjectsView))
		r.Get("/projects", h.listProjects)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermProjectsEdit))
		r.Post("/projects", h.createProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermUnitsView))
		r.Get("/projects/{projectID}/units", h.listUnits)
	})
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	actorID, ok := rbac.ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	companies, err := h.service.ListCompanies(r.Context(), actorID)
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	actorID, ok := rbac.ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	projects, err := h.service.ListProjects(r.Context(), actorID)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": projects})
}

type createProjectRequest struct {
	CompanyID string `json:"company_id" validate:"required,uuid4"`
	Name      string `json:"name" validate:"required,min=2,max=128"`
	Code      string `json:"code" validate:"required,min=2,max=16"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	actorID, ok := rbac.ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	var req createProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	project, err := h.service.CreateProject(r.Context(), actorID, companyID, req.Name, req.Code)
	if err != nil {
		h.logger.Error("create project", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	actorID, ok := rbac.ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid project id")
		return
	}
	units, err := h.service.ListUnits(r.Context(), actorID, projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"units": units})
}
