package handler

import (
	"net/http"
	"strconv"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type TransfersHandler struct{ svc service.TransferService }

func NewTransfersHandler(svc service.TransferService) *TransfersHandler {
	return &TransfersHandler{svc: svc}
}

// Create godoc
// @Summary      Request a stock transfer
// @Description  Opens a pending transfer pulling stock from the source branch. No stock moves until approval.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTransferRequest true "Transfer request"
// @Success      201  {object} dto.CreateTransferResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/transfers [post]
func (h *TransfersHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
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

// Approve godoc
// @Summary      Approve a pending transfer
// @Description  Source-branch action. Debits the source ledger and moves the transfer to approved. Quantities default to the requested amounts.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Transfer UUID"
// @Param        body body dto.ApproveTransferRequest true "Approval overrides"
// @Success      200  {object} dto.TransferResponse
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transfers/{id}/approve [post]
func (h *TransfersHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ApproveTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reject godoc
// @Summary      Reject a pending transfer
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Transfer UUID"
// @Param        body body dto.RejectTransferRequest true "Rejection reason"
// @Success      200  {object} dto.TransferResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transfers/{id}/reject [post]
func (h *TransfersHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.RejectTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pickup godoc
// @Summary      Record driver pickup
// @Description  Moves an approved transfer to in_transit.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Transfer UUID"
// @Param        body body dto.PickupTransferRequest true "Driver"
// @Success      200  {object} dto.TransferResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transfers/{id}/pickup [post]
func (h *TransfersHandler) Pickup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.PickupTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Pickup(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary      Receive an in-transit transfer
// @Description  Destination-branch action. Credits the destination ledger and completes the transfer. Unlisted items default to their approved quantity.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Transfer UUID"
// @Param        body body dto.ReceiveTransferRequest true "Received quantities"
// @Success      200  {object} dto.TransferResponse
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transfers/{id}/receive [post]
func (h *TransfersHandler) Receive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReceiveTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a pending transfer
// @Tags         transfers
// @Security     BearerAuth
// @Param        id path string true "Transfer UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/transfers/{id} [delete]
func (h *TransfersHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get godoc
// @Summary      Get a transfer
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transfer UUID"
// @Success      200 {object} dto.TransferResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/transfers/{id} [get]
func (h *TransfersHandler) Get(c *gin.Context) {
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
// @Summary      List transfers
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        status    query string false "Filter by status"
// @Param        branch_id query string false "Matches either side of the transfer"
// @Param        limit     query int    false "Max rows"
// @Success      200 {array} dto.TransferResponse
// @Router       /v1/transfers [get]
func (h *TransfersHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter := dto.TransferFilter{
		Status:   c.Query("status"),
		BranchID: c.Query("branch_id"),
		Limit:    limit,
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
