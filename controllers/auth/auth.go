package authController

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/database"
	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/utils"
	authValidator "pharmacoach/validators/auth"
)

type Controller struct {
	Sessions *middleware.SessionManager
	Hasher   utils.PasswordHasher
	Emails   *utils.EmailService
}

func (ctl *Controller) Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRegister").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	// Hash Password
	hashedPassword, err := ctl.Hasher.Hash(reqData.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	newUser, err := database.Database.Store.CreateUser(c.UserContext(), models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: hashedPassword,
		Role:     models.RoleStudent,
		Status:   models.StatusPending,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "user", newUser.ID, "email", newUser.Email)
	ctl.Emails.SendRegistrationEmail(newUser.Email, newUser.Name)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Registration submitted! You can log in once an administrator approves it.", newUser.Sanitized())
}

func loginFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func (ctl *Controller) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	user, err := database.Database.Store.GetUserByEmail(c.UserContext(), reqData.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return loginFailure(c, fiber.StatusUnauthorized, "Invalid email or password!")
		}
		return fmt.Errorf("finding user: %w", err)
	}

	// Validate password
	if err := ctl.Hasher.Compare(user.Password, reqData.Password); err != nil {
		return loginFailure(c, fiber.StatusUnauthorized, "Invalid email or password!")
	}

	switch user.Status {
	case models.StatusPending:
		return loginFailure(c, fiber.StatusForbidden, "Your account is awaiting approval.")
	case models.StatusRejected:
		return loginFailure(c, fiber.StatusForbidden, "Your registration was rejected.")
	}

	token, _, err := ctl.Sessions.GenerateJWT(user)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	slog.Info("user logged in", "user", user.ID, "ip", c.IP())
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    user.Sanitized(),
		"token":   token,
		"message": "Login successful.",
	})
}

func (ctl *Controller) Logout(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	ctl.Sessions.Revoke(session.TokenID, session.ExpiresAt)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out.", nil)
}

func (ctl *Controller) Me(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", session.User.Sanitized())
}

// BootstrapAdmin creates an approved admin account for email unless one already exists.
func BootstrapAdmin(ctx context.Context, hasher utils.PasswordHasher, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	_, err := database.Database.Store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("looking up admin: %w", err)
	}

	hashedPassword, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin, err := database.Database.Store.CreateUser(ctx, models.User{
		Name:     "Administrator",
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		Status:   models.StatusApproved,
	})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	slog.Info("admin account created", "user", admin.ID, "email", admin.Email)
	return nil
}
