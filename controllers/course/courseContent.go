package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/database"
	"pharmacoach/middleware"
	"pharmacoach/models"
	courseValidator "pharmacoach/validators/course"
)

// ListResources returns resources, filtered by ?courseId. Students only see courses they still have access to.
func (ctl *Controller) ListResources(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resources, err := database.Database.Store.ListResources(c.UserContext())
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	if courseID := c.Query("courseId"); courseID != "" {
		filtered := make([]models.CourseResource, 0, len(resources))
		for _, r := range resources {
			if r.CourseID == courseID {
				filtered = append(filtered, r)
			}
		}
		resources = filtered
	}

	resources = ctl.Gate.FilterResources(session.User, resources)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resources fetched successfully!", resources)
}

func (ctl *Controller) CreateResource(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedResource").(*courseValidator.ResourceRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	resource, err := database.Database.Store.CreateResource(c.UserContext(), reqData.Resource())
	if err != nil {
		return fmt.Errorf("creating resource: %w", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Resource created successfully!", resource)
}

func (ctl *Controller) DeleteResource(c *fiber.Ctx) error {
	if err := database.Database.Store.DeleteResource(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Resource not found!", nil)
		}
		return fmt.Errorf("deleting resource: %w", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resource deleted successfully!", nil)
}
