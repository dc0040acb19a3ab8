package handler

import (
	"net/http"

	"tenant-service/internal/middleware"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateOrgRequest is the typed schema for POST /org/create.
type CreateOrgRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

// UpdateOrgRequest is the typed schema for PUT /org/update.
type UpdateOrgRequest struct {
	OrganizationName    string `json:"organization_name"`
	NewOrganizationName string `json:"new_organization_name,omitempty"`
	Email               string `json:"email,omitempty"`
	Password            string `json:"password,omitempty"`
}

// DeleteOrgRequest is the typed schema for DELETE /org/delete.
type DeleteOrgRequest struct {
	OrganizationName string `json:"organization_name"`
}

// CreateOrg provisions a new organization with its owner admin and
// backing collection.
func (h *Handler) CreateOrg(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLifecycleOperation("create")

	var req CreateOrgRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.OrganizationName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_name, email and password are required"})
	}

	result, err := h.manager.Create(c.Request().Context(), req.OrganizationName, req.Email, req.Password)
	if err != nil {
		log.Error("Organization create failed",
			zap.String("organization_name", req.OrganizationName),
			zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"status":            "ok",
		"org_id":            result.OrgID,
		"organization_name": result.Name,
		"collection_name":   result.CollectionName,
	})
}

// GetOrg returns the organization registered under the queried name.
func (h *Handler) GetOrg(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLifecycleOperation("get")

	orgName := c.QueryParam("organization_name")
	if orgName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_name required"})
	}

	org, err := h.manager.Get(c.Request().Context(), orgName)
	if err != nil {
		log.Debug("Organization lookup failed", zap.String("organization_name", orgName), zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"organization": org})
}

// UpdateOrg applies admin profile changes and renames the organization
// when a differing new name is supplied.
func (h *Handler) UpdateOrg(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLifecycleOperation("update")

	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	var req UpdateOrgRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.OrganizationName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_name required"})
	}

	result, err := h.manager.Update(c.Request().Context(), claims,
		req.OrganizationName, req.NewOrganizationName, req.Email, req.Password)
	if err != nil {
		log.Error("Organization update failed",
			zap.String("organization_name", req.OrganizationName),
			zap.Error(err))
		return writeError(c, err)
	}

	if result.Renamed > 0 {
		prometheus.RecordLifecycleOperation("rename")
	}

	resp := echo.Map{
		"status": "ok",
		"note":   result.Note,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteOrg removes the organization, its admins and its collection.
func (h *Handler) DeleteOrg(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLifecycleOperation("delete")

	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	var req DeleteOrgRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse delete request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.OrganizationName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_name required"})
	}

	if err := h.manager.Delete(c.Request().Context(), claims, req.OrganizationName); err != nil {
		log.Error("Organization delete failed",
			zap.String("organization_name", req.OrganizationName),
			zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"note":   "organization deleted",
	})
}
