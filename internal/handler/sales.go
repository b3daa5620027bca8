package handler

import (
	"net/http"

	"stockbook/internal/dto"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Create godoc
// @Summary      Record a sale and decrement stock
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Sale"
// @Success      200  {object} dto.CreateSaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /sales/create [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Edit a sale and apply the net stock delta
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UpdateSaleRequest true "Sale changes"
// @Success      200  {object} dto.MutateSaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /sales/update [put]
func (h *SalesHandler) Update(c *gin.Context) {
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a sale and restore its quantity
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        sale_id  query string true "Sale ID"
// @Param        item_id  query string true "Item ID"
// @Param        quantity query string true "Quantity sold"
// @Success      200  {object} dto.MutateSaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /sales/delete [delete]
func (h *SalesHandler) Delete(c *gin.Context) {
	var req dto.DeleteSaleRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, err := h.svc.Delete(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date            query string false "YYYY-MM-DD"
// @Param        organization_id query string false "Organization (superadmin only)"
// @Param        branch_id       query string false "Branch"
// @Success      200  {object} dto.SaleListResponse
// @Router       /sales/list [get]
func (h *SalesHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
