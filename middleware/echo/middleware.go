package echomw

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	treespec "github.com/reoring/treespec"
	"github.com/reoring/treespec/middleware"
)

// ValidateJSON validates the request body against the named schema or choice
// group, stores the validated node in the request context on success, or
// returns 400 with the issues payload when validation fails. Without explicit
// options the boundary default applies: unknown keys are errors.
func ValidateJSON(reg *treespec.Registry, schema string, opts ...treespec.ValidateOpt) echo.MiddlewareFunc {
	if len(opts) == 0 {
		opts = []treespec.ValidateOpt{middleware.DefaultValidateOpt()}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			node, err := reg.ValidateJSON(c.Request().Context(), schema, body, opts...)
			if err != nil {
				if iss, ok := treespec.AsIssues(err); ok {
					return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				}
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			ctx := middleware.ContextWithNode(c.Request().Context(), node)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetNode fetches the validated node from echo.Context.
func GetNode(c echo.Context) (*treespec.Node, bool) {
	return middleware.NodeFromContext(c.Request().Context())
}
