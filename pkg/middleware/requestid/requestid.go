package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the request ID on the wire, inbound and outbound.
	Header = "X-Request-ID"

	contextKey = "request_id"
	// Inbound IDs longer than this are replaced rather than echoed.
	maxInboundLen = 128
)

// Middleware tags every request with an ID. A well-formed inbound
// X-Request-ID is kept so the portal's logs line up with the caller's;
// anything else gets a fresh UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > maxInboundLen {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID bound to the context, empty when the
// middleware did not run.
func Value(c *gin.Context) string {
	v, ok := c.Get(contextKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
