package handler

import (
	"net/http"
	"strconv"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Adjust godoc
// @Summary      Adjust a stock entry
// @Description  Applies a manual delta to one product/branch ledger entry. The entry is created on first adjustment. Negative results follow the configured floor policy.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AdjustStockRequest true "Adjustment"
// @Success      200  {object} dto.StockEntryResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/stock/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Adjust(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a stock entry
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stock entry UUID"
// @Success      200 {object} dto.StockEntryResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/{id} [get]
func (h *StockHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List stock entries
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id  query string false "Filter by branch"
// @Param        product_id query string false "Filter by product"
// @Success      200 {array} dto.StockEntryResponse
// @Router       /v1/stock [get]
func (h *StockHandler) List(c *gin.Context) {
	filter := dto.StockFilter{
		BranchID:  c.Query("branch_id"),
		ProductID: c.Query("product_id"),
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      List movements of a stock entry
// @Description  Returns the append-only movement history, newest first.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Stock entry UUID"
// @Param        limit query int    false "Max rows (default 50)"
// @Success      200 {array} dto.StockMovementResponse
// @Router       /v1/stock/{id}/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.Movements(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
