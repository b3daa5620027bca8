package handler

import (
	"net/http"

	"stockbook/internal/dto"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct{ svc service.TransferService }

func NewTransferHandler(svc service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Create godoc
// @Summary      Record a transfer between two branches
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTransferRequest true "Transfer"
// @Success      200  {object} dto.CreateTransferResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /transfers/create [post]
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	t, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreateTransferResponse{Success: true, Transfer: *t})
}

// List godoc
// @Summary      List transfers visible to a user
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        user_id   query string false "User, default the caller"
// @Param        branch_id query string false "Branch (branch-less users only)"
// @Param        from_date query string false "YYYY-MM-DD"
// @Param        to_date   query string false "YYYY-MM-DD"
// @Success      200  {object} dto.TransferListResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /transfers/list [get]
func (h *TransferHandler) List(c *gin.Context) {
	var q dto.TransferListQuery
	if !bindQuery(c, &q) {
		return
	}
	rows, err := h.svc.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TransferListResponse{Success: true, Transfers: rows})
}
