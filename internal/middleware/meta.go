package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/pkg/middleware/requestid"
)

const (
	apiMetaKey    = "api_meta"
	apiStartedKey = "api_started"
)

// APIMeta seeds the envelope metadata for /api/v1 responses with the request
// id, the build variant and the viewport the client hinted at.
func APIMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		meta := map[string]interface{}{
			"variant":  VariantFrom(c),
			"viewport": ViewportFrom(c),
		}
		if id := requestid.Value(c); id != "" {
			meta["request_id"] = id
		}
		c.Set(apiMetaKey, meta)
		c.Set(apiStartedKey, started)
		c.Next()
	}
}

// SetMeta adds key to the metadata of the current API response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := Meta(c)
	if meta == nil {
		meta = map[string]interface{}{}
		c.Set(apiMetaKey, meta)
	}
	meta[key] = value
}

// Meta returns the metadata collected so far, stamped with the elapsed time.
// It is nil outside the API group.
func Meta(c *gin.Context) map[string]interface{} {
	value, ok := c.Get(apiMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	if started, ok := c.Get(apiStartedKey); ok && meta != nil {
		if t, ok := started.(time.Time); ok {
			meta["elapsed_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}
