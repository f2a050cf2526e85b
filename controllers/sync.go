package controllers

import (
	"context"
	"net/http"
	"time"

	"laundromat/apperror"
	"laundromat/models"

	"github.com/gin-gonic/gin"
)

// syncTimeout bounds one /api/sync batch. A backlog from a long offline stretch
// takes far longer to apply than a single CRUD request.
const syncTimeout = 60 * time.Second

type Syncer interface {
	Sync(ctx context.Context, req models.SyncRequest) models.SyncResult
}

type SyncController struct {
	syncer Syncer
}

func NewSyncController(syncer Syncer) *SyncController {
	return &SyncController{syncer: syncer}
}

// Sync applies a batch the POS staged while offline. Per-item failures, and phases
// cut off by the deadline, come back in the 200 body; only a malformed body fails
// the request.
func (h *SyncController) Sync(c *gin.Context) {
	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Wrap(err, apperror.ErrSyncPayload.Code, apperror.ErrSyncPayload.Message, apperror.ErrSyncPayload.HTTPStatus))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), syncTimeout)
	defer cancel()

	c.JSON(http.StatusOK, h.syncer.Sync(ctx, req))
}
