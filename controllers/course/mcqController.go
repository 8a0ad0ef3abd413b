package controllers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/database"
	"pharmacoach/middleware"
	"pharmacoach/models"
	courseValidator "pharmacoach/validators/course"
)

// ListTests returns tests, filtered by ?courseId. Students get them without answers.
func (ctl *Controller) ListTests(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	tests, err := database.Database.Store.ListTests(c.UserContext())
	if err != nil {
		return fmt.Errorf("listing tests: %w", err)
	}

	courseID := c.Query("courseId")
	out := make([]models.TestItem, 0, len(tests))
	for _, t := range tests {
		if courseID != "" && t.CourseID != courseID {
			continue
		}
		if !session.IsAdmin() {
			t = t.WithoutAnswers()
		}
		out = append(out, t)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tests fetched successfully!", out)
}

func (ctl *Controller) GetTest(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	test, err := database.Database.Store.GetTest(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
		}
		return fmt.Errorf("finding test: %w", err)
	}
	if !session.IsAdmin() {
		test = test.WithoutAnswers()
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test fetched successfully!", test)
}

func (ctl *Controller) CreateTest(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedTest").(*courseValidator.CreateTestRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	test, err := database.Database.Store.CreateTest(c.UserContext(), reqData.Test())
	if errors.Is(err, database.ErrDuplicateID) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A test with this id already exists!", nil)
	}
	if err != nil {
		return fmt.Errorf("creating test: %w", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Test created successfully!", test)
}

// ListResults returns the caller's results, newest first. Admins see everyone's, optionally narrowed by ?userId.
// Results stay visible after a course expires.
func (ctl *Controller) ListResults(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	results, err := database.Database.Store.ListResults(c.UserContext())
	if err != nil {
		return fmt.Errorf("listing results: %w", err)
	}

	userID := session.User.ID
	if session.IsAdmin() {
		userID = c.Query("userId")
	}
	out := make([]models.TestResult, 0, len(results))
	for _, r := range results {
		if userID == "" || r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Results fetched successfully!", out)
}
