package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/withjoono/grinalda-sub000/controllers"
	"github.com/withjoono/grinalda-sub000/middleware"
)

// Register sets up all engine routes. The webhook endpoint is the only
// unauthenticated boundary; everything else requires a member token.
func Register(
	r *gin.Engine,
	jwtSecret string,
	pc *controllers.PaymentController,
	ec *controllers.EntitlementController,
	cc *controllers.CouponController,
) {
	r.POST("/payments/webhook", pc.GatewayWebhook)

	authed := r.Group("")
	authed.Use(middleware.AuthMiddleware(jwtSecret))

	payments := authed.Group("/payments")
	payments.POST("/prepare", pc.PrepareOrder)
	payments.POST("/verify", pc.VerifyPayment)
	payments.POST("/inquire", pc.InquirePayment)
	payments.POST("/free", pc.FreeContract)

	authed.GET("/entitlements", ec.ActiveEntitlements)
	authed.POST("/coupons/validate", cc.ValidateCoupon)
}
