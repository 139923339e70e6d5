package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/services"
)

// CouponController handles the discount-preview endpoint. Coupon catalog
// administration lives in the admin service, not here.
type CouponController struct {
	coupons services.CouponService
}

// NewCouponController creates a new CouponController.
func NewCouponController(coupons services.CouponService) *CouponController {
	return &CouponController{coupons: coupons}
}

// ValidateCoupon handles POST /coupons/validate.
func (cc *CouponController) ValidateCoupon(c *gin.Context) {
	var req models.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	discount, appErr := cc.coupons.Preview(c.Request.Context(), req.Code, req.ProductID)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, discount)
}
