package handler

import (
	"net/http"

	"stockbook/internal/apierror"
	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SnapshotHandler serves opening / closing snapshots, restocking and the
// movement ledger. One handler value is bound per snapshot kind.
type SnapshotHandler struct {
	svc  service.SnapshotService
	kind model.SnapshotKind
}

func NewSnapshotHandler(svc service.SnapshotService, kind model.SnapshotKind) *SnapshotHandler {
	return &SnapshotHandler{svc: svc, kind: kind}
}

// List godoc
// @Summary      List opening, closing or restocking records
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        date            query string false "YYYY-MM-DD"
// @Param        organization_id query string false "Organization (superadmin only)"
// @Param        item_id         query string false "Item"
// @Param        branch_id       query string false "Branch"
// @Success      200  {object} dto.StockListResponse
// @Router       /stock/opening [get]
// @Router       /stock/closing [get]
// @Router       /stock/restocking [get]
func (h *SnapshotHandler) List(c *gin.Context) {
	var q dto.StockListQuery
	if !bindQuery(c, &q) {
		return
	}
	records, err := h.svc.List(c.Request.Context(), actorFrom(c), h.kind, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockListResponse{Success: true, Records: records})
}

// Record godoc
// @Summary      Record a snapshot, or a restocking when bound to restocking
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecordStockRequest true "Record"
// @Success      200  {object} dto.RecordStockResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /stock/opening [post]
// @Router       /stock/closing [post]
// @Router       /stock/restocking [post]
func (h *SnapshotHandler) Record(c *gin.Context) {
	var req dto.RecordStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var (
		resp *dto.RecordStockResponse
		err  error
	)
	if h.kind == model.SnapshotRestocking {
		resp, err = h.svc.Restock(c.Request.Context(), actorFrom(c), req)
	} else {
		resp, err = h.svc.Record(c.Request.Context(), actorFrom(c), h.kind, req)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary      Persist the report's figures as organization-wide snapshots
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.FinalizeRequest false "Date, default today"
// @Success      200  {object} dto.FinalizeResponse
// @Failure      403  {object} apierror.APIError
// @Router       /stock/opening/finalize [post]
// @Router       /stock/closing/finalize [post]
func (h *SnapshotHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeRequest
	// An empty body means today
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalize(c.Request.Context(), actorFrom(c), h.kind, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a restocking and take its quantity back out
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Restocking ID"
// @Success      200  {object} dto.MutateSaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /stock/restocking/{id} [delete]
func (h *SnapshotHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.NewField("id", "invalid id"))
		return
	}
	resp, err := h.svc.DeleteRestocking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      Paginated stock movement ledger
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        item_id   query string false "Item"
// @Param        branch_id query string false "Branch"
// @Param        kind      query string false "Movement kind"
// @Param        page      query int    false "Page, default 1"
// @Param        limit     query int    false "Page size"
// @Success      200  {object} dto.MovementListResponse
// @Router       /stock/movements [get]
func (h *SnapshotHandler) Movements(c *gin.Context) {
	var q dto.MovementQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
