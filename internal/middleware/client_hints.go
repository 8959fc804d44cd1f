package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
)

const (
	viewportContextKey = "viewport"
	variantContextKey  = "app_variant"
)

// ClientHints classifies the viewport of every request and asks browsers for
// the hints used to do so. The application variant is echoed in a header.
func ClientHints(variant string, breakpoint int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Accept-CH", "Sec-CH-UA-Mobile, Sec-CH-Viewport-Width")
		c.Header("Vary", "Sec-CH-UA-Mobile, Sec-CH-Viewport-Width")
		c.Header("X-App-Variant", variant)
		c.Set(viewportContextKey, grid.ViewportFromRequest(c.Request, breakpoint))
		c.Set(variantContextKey, variant)
		c.Next()
	}
}

// ViewportFrom returns the viewport classified by ClientHints, desktop when
// the middleware did not run.
func ViewportFrom(c *gin.Context) grid.Viewport {
	if value, exists := c.Get(viewportContextKey); exists {
		if v, ok := value.(grid.Viewport); ok {
			return v
		}
	}
	return grid.ViewportDesktop
}

// VariantFrom returns the application variant.
func VariantFrom(c *gin.Context) string {
	return c.GetString(variantContextKey)
}
