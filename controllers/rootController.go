package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// rootHandler answers the welcome and health probe.
func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "caredesk", "status": "ok"})
}

// SetupRootRoute sets up routes for the application
func SetupRootRoute(router *gin.Engine) {
	router.GET("/", rootHandler)
}
