package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// from the Redis-backed session, so controllers never touch the session
// store directly for identity data.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: treat as anonymous user
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	userID, _ := sess.Get(usercontext.KeyUserID).(string)
	if userID == "" {
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:      userID,
		Username:    session.GetSessionValue(c, usercontext.KeyUsername),
		Email:       session.GetSessionValue(c, usercontext.KeyUserEmail),
		AccessToken: session.GetSessionValue(c, usercontext.KeyAccessToken),
		IsLoggedIn:  true,
	})
	return c.Next()
}
