package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/gateway"
	"github.com/withjoono/grinalda-sub000/models"
)

// GatewayWebhook handles POST /payments/webhook. The gateway may redeliver;
// processing errors are logged but acknowledged, since the handlers already
// re-verify terminal statuses against gateway truth and treat resolved orders
// as no-ops. Malformed payloads and unknown statuses are rejected outright.
func (pc *PaymentController) GatewayWebhook(c *gin.Context) {
	var req models.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pc.logger.Warn("Malformed gateway webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	switch req.Status {
	case gateway.StatusPaid, gateway.StatusFailed, gateway.StatusCancelled:
	default:
		pc.logger.Warn("Unknown webhook status", zap.String("status", req.Status))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown webhook status"})
		return
	}

	pc.logger.Info("Processing gateway webhook",
		zap.String("merchant_uid", req.MerchantUID),
		zap.String("gateway_txn_id", req.GatewayTxnID),
		zap.String("status", req.Status),
	)

	if appErr := pc.payments.WebhookDispatch(
		c.Request.Context(), req.GatewayTxnID, req.MerchantUID, req.Status); appErr != nil {
		pc.logger.Error("Webhook processing failed",
			zap.String("merchant_uid", req.MerchantUID),
			zap.String("status", req.Status),
			zap.Error(appErr),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
