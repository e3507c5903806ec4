package ginmw

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	treespec "github.com/reoring/treespec"
	"github.com/reoring/treespec/middleware"
)

// ValidateJSON validates the request body against the named schema or choice
// group, stores the validated node in the request context, and on validation
// failure returns 400 with the issues payload. Without explicit options the
// boundary default applies: unknown keys are errors.
func ValidateJSON(reg *treespec.Registry, schema string, opts ...treespec.ValidateOpt) gin.HandlerFunc {
	if len(opts) == 0 {
		opts = []treespec.ValidateOpt{middleware.DefaultValidateOpt()}
	}
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		node, err := reg.ValidateJSON(c.Request.Context(), schema, body, opts...)
		if err != nil {
			if iss, ok := treespec.AsIssues(err); ok {
				c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				c.Abort()
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		// store the validated node in the request context
		c.Request = c.Request.WithContext(middleware.ContextWithNode(c.Request.Context(), node))
		c.Next()
	}
}

// GetNode fetches the validated node from gin.Context.
func GetNode(c *gin.Context) (*treespec.Node, bool) {
	return middleware.NodeFromContext(c.Request.Context())
}
