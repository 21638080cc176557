package handler

import (
	"net/http"
	"strconv"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// Create godoc
// @Summary      Create an invoice
// @Description  One transaction: invoice, items, ledger deductions, loyalty. Responds with low-stock warnings for entries at or under the configured threshold.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateInvoiceRequest true "Invoice"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices [post]
func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary      Cancel an invoice
// @Description  Marks the invoice cancelled; with return_stock the exact ledger entries the items debited are restored, once.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Invoice UUID"
// @Param        body body dto.CancelInvoiceRequest true "Reason"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices/{id}/cancel [post]
func (h *InvoicesHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CancelInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Edit godoc
// @Summary      Edit an invoice
// @Description  Replaces the item set, reversing the old ledger deductions and applying the new ones in one transaction. Each edit appends to the edit history.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Invoice UUID"
// @Param        body body dto.EditInvoiceRequest true "New content"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices/{id} [put]
func (h *InvoicesHandler) Edit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.EditInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Edit(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice UUID"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicesHandler) Get(c *gin.Context) {
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
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param        end_date   query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param        limit      query int    false "Max rows (default 100)"
// @Success      200 {array} dto.InvoiceResponse
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter := dto.InvoiceFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Limit:     limit,
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EditHistory godoc
// @Summary      Invoice edit history
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice UUID"
// @Success      200 {array} dto.InvoiceEditHistoryResponse
// @Router       /v1/invoices/{id}/edit-history [get]
func (h *InvoicesHandler) EditHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.EditHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearAll godoc
// @Summary      Delete all invoices
// @Description  Administrative wipe of the invoice tables. Stock is not restored.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]int64
// @Failure      403 {object} apierror.APIError
// @Router       /v1/invoices/clear-all [post]
func (h *InvoicesHandler) ClearAll(c *gin.Context) {
	deleted, err := h.svc.ClearAll(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
