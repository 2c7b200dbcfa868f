package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/surveybot/pkg/reqctx"
)

const (
	HeaderRequestID = "X-Request-Id"
	LocalRequestID  = "request_id"
)

// RequestID keeps an incoming X-Request-Id or generates one, echoes it back,
// and attaches request metadata to the request context.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals(LocalRequestID, rid)
		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), &reqctx.RequestMeta{
			RequestID:  rid,
			Source:     reqctx.SourceHTTP,
			ClientIP:   c.IP(),
			UserAgent:  c.Get("User-Agent"),
			ReceivedAt: time.Now(),
		}))
		return c.Next()
	}
}
