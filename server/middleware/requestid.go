package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id. Callers that
// already track a request (a telephony platform retrying a submission, a
// proxy in front of the service) may supply their own.
const RequestIDHeader = "X-Request-Id"

// requestIDKey is the gin context key the id is stored under.
const requestIDKey = "request_id"

// RequestID makes sure every request carries a correlation id, minting one
// when the caller did not send the header, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
