package server

import "github.com/gin-gonic/gin"

// Codigos de error del envelope {success:false, code, message}.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeUnauthorized   = "UNAUTHORIZED"
)

// respondOK escribe el envelope de exito {success, message, data}.
func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError escribe el envelope de error.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}
