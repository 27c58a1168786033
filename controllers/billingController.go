package controllers

import (
	"CareDesk/handlers"
	"CareDesk/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupBillingRoutes wires billing, pharmacy and the dashboard.
func SetupBillingRoutes(router gin.IRoutes, billingHandler *handlers.BillingHandler, pharmacyHandler *handlers.PharmacyHandler, dashboardHandler *handlers.DashboardHandler) {
	router.POST("/billing", billingHandler.CreateBilling)
	router.GET("/billing", billingHandler.GetAllBillings)
	router.GET("/billing/summary", billingHandler.GetBillingSummary)
	router.GET("/billing/:id", billingHandler.GetBillingByID)
	router.POST("/billing/:id/status", billingHandler.UpdateBillingStatus)

	router.POST("/pharmacy", pharmacyHandler.CreateMedicine)
	router.GET("/pharmacy", pharmacyHandler.GetAllMedicines)
	router.GET("/pharmacy/:id", pharmacyHandler.GetMedicineByID)
	router.PUT("/pharmacy/:id", pharmacyHandler.UpdateMedicine)
	router.POST("/pharmacy/:id/dispense", pharmacyHandler.Dispense)
	router.POST("/pharmacy/:id/restock", pharmacyHandler.Restock)
	router.GET("/pharmacy/:id/movements", pharmacyHandler.GetMovements)

	router.GET("/dashboard", dashboardHandler.GetStats)
}

// SetupInternalRoutes wires operator endpoints behind the static bearer
// token. Nothing is registered without a token.
func SetupInternalRoutes(router *gin.Engine, bearerToken string, billingHandler *handlers.BillingHandler) {
	if bearerToken == "" {
		return
	}
	internal := router.Group("/internal", middlewares.ValidateBearerToken(bearerToken))
	internal.POST("/billing/evaluate-overdue", billingHandler.EvaluateOverdue)
}
