package handler

import (
	"net/http"

	"stockbook/internal/apierror"
	"stockbook/internal/dto"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct{ svc service.OrganizationService }

func NewOrganizationHandler(svc service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

// BySubdomain godoc
// @Summary      Resolve an organization from its subdomain
// @Description  Unknown subdomains answer 200 with a null organization.
// @Tags         organizations
// @Produce      json
// @Param        subdomain query string true "Subdomain label"
// @Success      200  {object} dto.ResolveOrganizationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /organizations/by-subdomain [get]
func (h *OrganizationHandler) BySubdomain(c *gin.Context) {
	sub := c.Query("subdomain")
	if sub == "" {
		c.JSON(http.StatusBadRequest, apierror.NewField("subdomain", "subdomain is required"))
		return
	}
	org, err := h.svc.Resolve(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResolveOrganizationResponse{Organization: org})
}

// Update godoc
// @Summary      Update organization settings
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UpdateOrganizationRequest true "Changes"
// @Success      200  {object} dto.UpdateOrganizationResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /organizations/update [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req dto.UpdateOrganizationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	org, err := h.svc.Update(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UpdateOrganizationResponse{Success: true, Organization: *org})
}
