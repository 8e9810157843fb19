package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Error string `json:"error" example:"No files provided"`
}

type InternalError struct {
	Error   string `json:"error" example:"Internal server error"`
	Message string `json:"message" example:"unexpected end of JSON input"`
}

func JSONSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, HTTPError{Error: message})
}

func MethodNotAllowedResponse(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, HTTPError{Error: "Method not allowed"})
}

func PayloadTooLargeResponse(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, HTTPError{Error: message})
}

func InternalServerErrorResponse(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, InternalError{
		Error:   "Internal server error",
		Message: message,
	})
}
