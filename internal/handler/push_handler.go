package handler

import (
	"context"

	"collabolab/internal/push"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeviceVerifier is implemented by service.Accounts.
type DeviceVerifier interface {
	VerifyDevice(ctx context.Context, userID uuid.UUID, token string) error
}

// PushChannel is implemented by push.Hub.
type PushChannel interface {
	ServeWS(c *gin.Context)
}

var (
	_ DeviceVerifier = (*service.Accounts)(nil)
	_ PushChannel    = (*push.Hub)(nil)
)

type PushHandler struct {
	devices DeviceVerifier
	hub     PushChannel
}

func NewPushHandler(devices DeviceVerifier, hub PushChannel) *PushHandler {
	return &PushHandler{devices: devices, hub: hub}
}

// Connect opens the push channel for the caller's registered device. The
// token query parameter must match the device stored on the caller's
// account.
func (h *PushHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.devices.VerifyDevice(c.Request.Context(), userID, c.Query("token")); err != nil {
		respondError(c, err)
		return
	}
	h.hub.ServeWS(c)
}
