package handler

import (
	"net/http"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SyncHandler struct{ svc service.SyncService }

func NewSyncHandler(svc service.SyncService) *SyncHandler { return &SyncHandler{svc: svc} }

// Upload godoc
// @Summary      Upload offline records
// @Description  Merges offline-created customers and invoices. Partial success: each record succeeds or fails independently and the response lists per-record errors. Replaying the same batch is harmless.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SyncUploadRequest true "Offline batch"
// @Success      200  {object} dto.SyncUploadResponse
// @Router       /v1/sync/upload [post]
func (h *SyncHandler) Upload(c *gin.Context) {
	var req dto.SyncUploadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Upload(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Download godoc
// @Summary      Download the offline snapshot
// @Description  Returns the catalog, branch stock, customers, settings, and coupons an offline client needs. Pass since (RFC 3339) for an incremental snapshot.
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id query string true  "Branch UUID"
// @Param        since     query string false "Only records changed after this time"
// @Success      200 {object} dto.SyncDownloadResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sync/download [get]
func (h *SyncHandler) Download(c *gin.Context) {
	branchID, err := uuid.Parse(c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid branch_id"))
		return
	}
	resp, err := h.svc.Download(c.Request.Context(), branchID, c.Query("since"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Status godoc
// @Summary      Sync status
// @Description  Server time and record counts, for offline clients to decide whether a sync is due.
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SyncStatusResponse
// @Router       /v1/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	resp, err := h.svc.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
