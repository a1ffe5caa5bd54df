package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/strataboard/strataboard/internal/platform/httpx"
	"github.com/strataboard/strataboard/internal/shared"
)

// Handler exposes the RBAC administration API: catalog reads, the
// role-permission matrix, scoped assignments and group memberships.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	checker  *Checker
	resolver *AccessResolver
	engine   *GroupEngine
	registry *ModuleRegistry
	mw       Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, checker *Checker, resolver *AccessResolver, engine *GroupEngine, registry *ModuleRegistry, mw Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		checker:  checker,
		resolver: resolver,
		engine:   engine,
		registry: registry,
		mw:       mw,
		validate: validator.New(),
	}
}

// MountRoutes registers the RBAC admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermRolesView))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{roleID}/permissions", h.rolePermissions)
		r.Get("/groups", h.listGroups)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermPermissionsView))
		r.Get("/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermRolesEdit))
		r.Post("/roles", h.createRole)
		r.Put("/roles/{roleID}/permissions", h.setRolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermUsersEdit))
		r.Post("/assignments", h.assignRole)
		r.Delete("/assignments", h.removeRole)
		r.Post("/groups/{group}/members", h.addGroupMember)
		r.Delete("/groups/{group}/members/{userID}", h.removeGroupMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermUsersView))
		r.Get("/users/{userID}/context", h.userContext)
		r.Get("/users/{userID}/projects", h.userProjects)
	})
	// Navigation data for the current actor requires no admin permission.
	r.Get("/modules", h.myModules)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": toRoleViews(roles)})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": toPermissionViews(perms)})
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Level       int    `json:"level" validate:"required,min=1,max=100"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.DisplayName, req.Level)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleView(role))
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	perms, err := h.service.RolePermissions(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": toPermissionViews(perms)})
}

type setRolePermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	var req setRolePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), roleID, req.PermissionIDs); err != nil {
		h.logger.Error("set role permissions", slog.Any("error", err), slog.Int64("role_id", roleID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

type assignRoleRequest struct {
	UserID    int64   `json:"user_id" validate:"required"`
	Role      string  `json:"role" validate:"required"`
	CompanyID *string `json:"company_id" validate:"omitempty,uuid4"`
	ProjectID *string `json:"project_id" validate:"omitempty,uuid4"`
	UnitID    *string `json:"unit_id" validate:"omitempty,uuid4"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	role, err := h.service.GetRoleByName(r.Context(), req.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	params := AssignRoleParams{UserID: req.UserID, RoleID: role.ID}
	params.CompanyID, err = parseOptionalUUID(req.CompanyID)
	if err == nil {
		params.ProjectID, err = parseOptionalUUID(req.ProjectID)
	}
	if err == nil {
		params.UnitID, err = parseOptionalUUID(req.UnitID)
	}
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid scope id")
		return
	}

	allowed, err := h.canAdministerScope(r, actorID, params.CompanyID, params.ProjectID)
	if err != nil {
		h.logger.Error("assign role scope check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(shared.ErrForbidden))
		return
	}

	if err := h.service.AssignRole(r.Context(), params); err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true})
}

type removeRoleRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	var req removeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.GetRoleByName(r.Context(), req.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RemoveRole(r.Context(), req.UserID, role.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.service.Groups()
	views := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		views = append(views, map[string]any{
			"name":         g.Name,
			"display_name": g.DisplayName,
			"base_role":    g.BaseRole,
			"modules":      g.Modules,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": views})
}

type groupMemberRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

func (h *Handler) addGroupMember(w http.ResponseWriter, r *http.Request) {
	var req groupMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AddGroupMember(r.Context(), chi.URLParam(r, "group"), req.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (h *Handler) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.RemoveGroupMember(r.Context(), chi.URLParam(r, "group"), userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) userContext(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	scope, err := ScopeFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid scope id")
		return
	}
	pc, err := h.checker.PermissionContext(r.Context(), userID, scope)
	if err != nil {
		h.logger.Error("resolve context", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if pc == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"roles": []any{}, "permissions": []any{}})
		return
	}
	roleNames := make([]string, 0, len(pc.Roles))
	for _, a := range pc.Roles {
		roleNames = append(roleNames, a.Role.Name)
	}
	permNames := make([]string, 0, len(pc.Permissions))
	for _, p := range pc.Permissions {
		permNames = append(permNames, p.Name)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roleNames, "permissions": permNames})
}

func (h *Handler) userProjects(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	projects, err := h.resolver.AccessibleProjects(r.Context(), userID)
	if err != nil {
		h.logger.Error("accessible projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	ids := make([]string, 0, len(projects))
	for _, id := range projects {
		ids = append(ids, id.String())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"project_ids": ids})
}

// myModules returns the navigation modules and effective flags for the
// current actor, combining role registry entries with group overrides.
func (h *Handler) myModules(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	pc, err := h.checker.PermissionContext(r.Context(), actorID, Scope{})
	if err != nil {
		h.logger.Error("resolve context", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if pc == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"modules": []any{}})
		return
	}

	type moduleView struct {
		Module string     `json:"module"`
		Flags  GroupFlags `json:"flags"`
	}
	var out []moduleView
	for _, module := range h.registry.Modules() {
		if pc.IsSuperAdmin() {
			out = append(out, moduleView{Module: module, Flags: GroupFlags{
				Access: true, View: true, Add: true, Edit: true, Delete: true,
				Print: true, Export: true, Approve: true, Assign: true,
			}})
			continue
		}
		for _, a := range pc.Roles {
			flags, granted, err := h.engine.EffectiveModuleFlags(r.Context(), actorID, a.Role.Name, module)
			if err != nil {
				h.logger.Error("effective module flags", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			if granted {
				out = append(out, moduleView{Module: module, Flags: flags})
				break
			}
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": out})
}

// canAdministerScope applies the tenancy rules for assignment writes: super
// admins pass anywhere, a project-scoped write needs manage rights on that
// project, a company-scoped write needs membership of that company, and an
// unscoped (global) assignment is reserved for super admins.
func (h *Handler) canAdministerScope(r *http.Request, actorID int64, companyID, projectID *uuid.UUID) (bool, error) {
	isSuper, err := h.checker.CheckRole(r.Context(), actorID, RoleSuperAdmin, Scope{})
	if err != nil {
		return false, err
	}
	if isSuper {
		return true, nil
	}
	switch {
	case projectID != nil:
		return h.resolver.CanManageProject(r.Context(), actorID, *projectID)
	case companyID != nil:
		return h.resolver.CanAccessCompany(r.Context(), actorID, *companyID)
	default:
		return false, nil
	}
}

type roleView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
	IsSystem    bool   `json:"is_system"`
}

func toRoleView(role Role) roleView {
	return roleView{ID: role.ID, Name: role.Name, DisplayName: role.DisplayName, Level: role.Level, IsSystem: role.IsSystem}
}

func toRoleViews(roles []Role) []roleView {
	out := make([]roleView, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleView(role))
	}
	return out
}

type permissionView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Module string `json:"module"`
	Action string `json:"action"`
}

func toPermissionViews(perms []Permission) []permissionView {
	out := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionView{ID: p.ID, Name: p.Name, Module: p.Module, Action: p.Action})
	}
	return out
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
