package userValidator

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/validators"
)

// UpdateUserRequest is a partial user update; absent fields are left alone.
type UpdateUserRequest struct {
	Name            *string              `json:"name" validate:"omitempty,notblank,max=100"`
	Email           *string              `json:"email" validate:"omitempty,email"`
	Password        *string              `json:"password" validate:"omitempty,min=6"`
	Role            *string              `json:"role" validate:"omitempty,oneof=student admin"`
	Status          *string              `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	EnrolledCourses *[]string            `json:"enrolledCourses" validate:"omitempty,dive,notblank"`
	CourseExpiry    map[string]time.Time `json:"courseExpiry"`
}

func (r *UpdateUserRequest) Patch() models.UserPatch {
	return models.UserPatch{
		Name:            r.Name,
		Email:           r.Email,
		Password:        r.Password,
		Role:            r.Role,
		Status:          r.Status,
		EnrolledCourses: r.EnrolledCourses,
		CourseExpiry:    r.CourseExpiry,
	}
}

func UpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateUserRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*reqData.Email))
			reqData.Email = &email
		}

		errors := validators.Struct(reqData)
		if reqData.Patch().IsEmpty() {
			errors["body"] = "Nothing to update!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUserUpdate", reqData)
		return c.Next()
	}
}

// ListUsersRequest pages and filters the user list. Without page and limit every user is returned.
type ListUsersRequest struct {
	Page   *int   `query:"page" json:"page" validate:"omitempty,min=1"`
	Limit  *int   `query:"limit" json:"limit" validate:"omitempty,min=1,max=500"`
	Search string `query:"search" json:"search"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// ListUsers validator middleware
func ListUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListUsersRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request query!", nil)
		}
		reqData.Search = strings.ToLower(strings.TrimSpace(reqData.Search))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUserList", reqData)
		return c.Next()
	}
}
