package handler

import (
	"net/http"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionsHandler struct{ svc service.SubscriptionService }

func NewSubscriptionsHandler(svc service.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{svc: svc}
}

// ── Plans ─────────────────────────────────────────────────────────────────────

// CreatePlan godoc
// @Summary      Create a subscription plan
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePlanRequest true "Plan"
// @Success      201  {object} dto.PlanResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/subscription-plans [post]
func (h *SubscriptionsHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePlan(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdatePlan godoc
// @Summary      Update a subscription plan
// @Description  Existing subscriptions keep their snapshotted terms; only the allowance list is read by reference.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Plan UUID"
// @Param        body body dto.UpdatePlanRequest true "Plan"
// @Success      200  {object} dto.PlanResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/subscription-plans/{id} [put]
func (h *SubscriptionsHandler) UpdatePlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePlan(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeletePlan godoc
// @Summary      Delete a subscription plan
// @Tags         subscriptions
// @Security     BearerAuth
// @Param        id path string true "Plan UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/subscription-plans/{id} [delete]
func (h *SubscriptionsHandler) DeletePlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePlan(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPlan godoc
// @Summary      Get a subscription plan
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Plan UUID"
// @Success      200 {object} dto.PlanResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/subscription-plans/{id} [get]
func (h *SubscriptionsHandler) GetPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPlans godoc
// @Summary      List subscription plans
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.PlanResponse
// @Router       /v1/subscription-plans [get]
func (h *SubscriptionsHandler) ListPlans(c *gin.Context) {
	resp, err := h.svc.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Subscriptions ─────────────────────────────────────────────────────────────

// Create godoc
// @Summary      Create a subscription
// @Description  Snapshots the plan terms at creation. The code must be unique across all subscriptions.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSubscriptionRequest true "Subscription"
// @Success      201  {object} dto.SubscriptionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/subscriptions [post]
func (h *SubscriptionsHandler) Create(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
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

// Get godoc
// @Summary      Get a subscription with remaining allowance
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription UUID"
// @Success      200 {object} dto.SubscriptionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/subscriptions/{id} [get]
func (h *SubscriptionsHandler) Get(c *gin.Context) {
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
// @Summary      List subscriptions
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status"
// @Success      200 {array} dto.SubscriptionResponse
// @Router       /v1/subscriptions [get]
func (h *SubscriptionsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancel a subscription
// @Tags         subscriptions
// @Security     BearerAuth
// @Param        id path string true "Subscription UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/subscriptions/{id} [delete]
func (h *SubscriptionsHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Check godoc
// @Summary      Check for an active subscription
// @Description  Pure read. Locates the newest active subscription by code, customer id, or phone, in that precedence. A lapsed subscription reports as inactive even before the expiry sweep persists it.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        code        query string false "Redemption code"
// @Param        customer_id query string false "Customer UUID"
// @Param        phone       query string false "Customer phone"
// @Success      200 {object} dto.SubscriptionCheckResponse
// @Router       /v1/subscriptions/check [get]
func (h *SubscriptionsHandler) Check(c *gin.Context) {
	q := dto.SubscriptionCheckQuery{
		Code:       c.Query("code"),
		CustomerID: c.Query("customer_id"),
		Phone:      c.Query("phone"),
	}
	resp, err := h.svc.Check(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Redeem godoc
// @Summary      Redeem subscription allowance
// @Description  All-or-nothing: every line must fit within its remaining allowance or the whole call fails and no stock moves.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RedeemRequest true "Redemption lines"
// @Success      200  {object} dto.RedeemResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/subscriptions/redeem [post]
func (h *SubscriptionsHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Redeem(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListRedemptions godoc
// @Summary      List redemptions of a subscription
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription UUID"
// @Success      200 {array} dto.RedemptionResponse
// @Router       /v1/subscriptions/{id}/redemptions [get]
func (h *SubscriptionsHandler) ListRedemptions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListRedemptions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExpireLapsed godoc
// @Summary      Expire lapsed subscriptions
// @Description  Idempotent maintenance sweep; also runs periodically in the background. Returns how many rows transitioned.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ExpireLapsedResponse
// @Router       /v1/subscriptions/expire-lapsed [post]
func (h *SubscriptionsHandler) ExpireLapsed(c *gin.Context) {
	resp, err := h.svc.ExpireLapsed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
