package restgrader

import "github.com/gin-gonic/gin"

// Register registers the grading handler
type Register interface {
	Register(*gin.Engine)
}
