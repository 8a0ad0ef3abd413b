package userController

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/database"
	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/utils"
	"pharmacoach/validators/userValidator"
)

type Controller struct {
	Hasher utils.PasswordHasher
	Emails *utils.EmailService
}

// ListUsers returns accounts with passwords stripped, filtered by ?status and ?search
// (name or email) and paged by ?page and ?limit. The total before paging is sent in X-Total-Count.
func (ctl *Controller) ListUsers(c *fiber.Ctx) error {
	query, ok := c.Locals("validatedUserList").(*userValidator.ListUsersRequest)
	if !ok {
		query = &userValidator.ListUsersRequest{}
	}

	users, err := database.Database.Store.ListUsers(c.UserContext())
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	filtered := make([]models.User, 0, len(users))
	for _, u := range users {
		if query.Status != "" && u.Status != query.Status {
			continue
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(u.Name), query.Search) &&
			!strings.Contains(strings.ToLower(u.Email), query.Search) {
			continue
		}
		filtered = append(filtered, u.Sanitized())
	}
	c.Set("X-Total-Count", strconv.Itoa(len(filtered)))

	if query.Page != nil || query.Limit != nil {
		page, limit := 1, 20
		if query.Page != nil {
			page = *query.Page
		}
		if query.Limit != nil {
			limit = *query.Limit
		}
		// compare page counts first; (page-1)*limit overflows for huge pages
		start := len(filtered)
		if page-1 < (len(filtered)+limit-1)/limit {
			start = (page - 1) * limit
		}
		end := min(start+limit, len(filtered))
		filtered = filtered[start:end]
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", filtered)
}

// UpdateUser merge-patches a user. Status changes to approved or rejected notify the user by email.
func (ctl *Controller) UpdateUser(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUserUpdate").(*userValidator.UpdateUserRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	userID := c.Params("id")
	ctx := c.UserContext()

	before, err := database.Database.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return fmt.Errorf("finding user: %w", err)
	}

	patch := reqData.Patch()
	if patch.Password != nil {
		hashed, err := ctl.Hasher.Hash(*patch.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		patch.Password = &hashed
	}

	updated, err := database.Database.Store.PatchUser(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		case errors.Is(err, database.ErrDuplicateEmail):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		return fmt.Errorf("updating user: %w", err)
	}

	if before.Status != updated.Status {
		slog.Info("user status changed", "user", updated.ID, "from", before.Status, "to", updated.Status)
		switch updated.Status {
		case models.StatusApproved:
			ctl.Emails.SendApprovalEmail(updated.Email, updated.Name)
		case models.StatusRejected:
			ctl.Emails.SendRejectionEmail(updated.Email, updated.Name)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User updated successfully!", updated.Sanitized())
}
