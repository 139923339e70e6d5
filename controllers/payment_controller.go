package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/middleware"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/services"
)

// PaymentController handles HTTP requests for the payment flow.
type PaymentController struct {
	payments services.PaymentService
	logger   *zap.Logger
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(payments services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{payments: payments, logger: logger}
}

// PrepareOrder handles POST /payments/prepare.
func (pc *PaymentController) PrepareOrder(c *gin.Context) {
	memberID, err := middleware.GetMemberID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.PrepareOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, appErr := pc.payments.PreRegister(c.Request.Context(), memberID, &req)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VerifyPayment handles POST /payments/verify.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	entitlements, appErr := pc.payments.VerifyAndProcess(
		c.Request.Context(), req.GatewayTxnID, req.MerchantUID, req.CouponCode)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entitlements": entitlements})
}

// InquirePayment handles POST /payments/inquire, the polling fallback for a
// client that never received a definitive synchronous response.
func (pc *PaymentController) InquirePayment(c *gin.Context) {
	var req models.InquirePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, appErr := pc.payments.InquireAndProcess(c.Request.Context(), req.MerchantUID)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, result)
}

// FreeContract handles POST /payments/free, the 100%-discount coupon path.
func (pc *PaymentController) FreeContract(c *gin.Context) {
	memberID, err := middleware.GetMemberID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.FreeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	entitlements, appErr := pc.payments.ContractFreeService(
		c.Request.Context(), req.CouponCode, req.ProductID, memberID)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entitlements": entitlements})
}
