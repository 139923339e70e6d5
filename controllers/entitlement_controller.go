package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/middleware"
	"github.com/withjoono/grinalda-sub000/services"
)

// EntitlementController exposes the derived active-entitlements view that
// downstream collaborators (SSO token issuance and friends) gate access on.
type EntitlementController struct {
	contracts services.ContractService
	logger    *zap.Logger
}

// NewEntitlementController creates a new EntitlementController.
func NewEntitlementController(contracts services.ContractService, logger *zap.Logger) *EntitlementController {
	return &EntitlementController{contracts: contracts, logger: logger}
}

// ActiveEntitlements handles GET /entitlements.
func (ec *EntitlementController) ActiveEntitlements(c *gin.Context) {
	memberID, err := middleware.GetMemberID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entitlements, appErr := ec.contracts.ActiveEntitlements(c.Request.Context(), memberID)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entitlements": entitlements})
}
