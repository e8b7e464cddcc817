package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/shopapi"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// LoginRequest is the credentials form checked before the backend call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleAuthLogin renders the login form and, on POST, exchanges credentials
// against the shop backend. The access token never leaves the server-side
// session.
func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Render("login", fiber.Map{
			"Title":      "Login",
			"IsLoggedIn": usercontext.IsLoggedIn(c),
			"Flash":      flash.Get(c),
			"CSRFToken":  c.Locals("csrf"),
		}, "layouts/main")
	}

	fm := fiber.Map{"type": "error"}

	req := LoginRequest{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
	// notice: in production you should not inform the user
	// with detailed messages about login failures
	if err := validator.New().Struct(&req); err != nil {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	login, err := shopClient.Login(ctx, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shopapi.ErrUnauthorized) {
			fm["message"] = "Login is currently unavailable"

			return flash.WithError(c, fm).Redirect("/login")
		}
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, login.User.ID)
	sess.Set(usercontext.KeyUsername, login.User.Name)
	sess.Set(usercontext.KeyUserEmail, login.User.Email)
	sess.Set(usercontext.KeyAccessToken, login.AccessToken)

	if err := sess.Save(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}

	return flash.WithSuccess(c, fm).Redirect("/")
}

// HandleAuthLogout destroys the session and returns to the storefront.
func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "You have been logged out",
	}

	return flash.WithSuccess(c, fm).Redirect("/")
}
