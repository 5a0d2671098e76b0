package response

import (
	"net/http"
	"reflect"

	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
)

// OK sends a 200 response. Arrays/slices are sent as-is, mirroring the
// upstream REST API which returns bare JSON arrays.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice && v.IsNil() {
			c.JSON(http.StatusOK, []interface{}{})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Error renders a structured error. Anything that is not an *apperr.Error is a 500.
func Error(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		InternalError(c, err)
		return
	}
	data := gin.H{"status": ae.Status}
	for k, v := range ae.Extra {
		data[k] = v
	}
	c.AbortWithStatusJSON(ae.Status, gin.H{
		"ok":      0,
		"code":    ae.Code,
		"message": ae.Message,
		"data":    data,
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.BadRequest(apperr.CodeInvalidParam, message))
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	Error(c, apperr.New(apperr.CodeForbidden, http.StatusUnauthorized, "Sorry, you are not allowed to do that."))
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, apperr.NotFound("rest_no_route", "No route was found matching the URL and request method."))
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	Error(c, apperr.New("rest_no_route", http.StatusMethodNotAllowed, "Method not allowed."))
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"ok":      0,
		"code":    "internal_error",
		"message": err.Error(),
		"data":    gin.H{"status": http.StatusInternalServerError},
	})
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	Error(c, apperr.New("rest_rate_limited", http.StatusTooManyRequests, "Too many requests, slow down."))
}
