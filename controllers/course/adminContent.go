package controllers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/authoring"
	"pharmacoach/database"
	"pharmacoach/middleware"
	courseValidator "pharmacoach/validators/course"
)

func adminID(c *fiber.Ctx) (string, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return "", false
	}
	return session.User.ID, true
}

func (ctl *Controller) GetDraft(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft fetched successfully!", ctl.Drafts.Get(id))
}

func (ctl *Controller) UpdateDraftMeta(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedDraftMeta").(*courseValidator.DraftMetaRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft updated successfully!", ctl.Drafts.SetMeta(id, reqData.Meta()))
}

func (ctl *Controller) DiscardDraft(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	ctl.Drafts.Reset(id)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft discarded.", nil)
}

func (ctl *Controller) AddDraftQuestion(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedDraftQuestion").(*courseValidator.QuestionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	question, err := ctl.Drafts.AddQuestion(id, authoring.QuestionInput{
		Text:               reqData.Text,
		Options:            reqData.Options,
		CorrectOptionIndex: reqData.CorrectOptionIndex,
		Explanation:        reqData.Explanation,
	})
	var verr *authoring.ValidationError
	if errors.As(err, &verr) {
		return middleware.ValidationErrorResponse(c, verr.Fields)
	}
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added!", question)
}

func (ctl *Controller) ImportDraftQuestions(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedBulkImport").(*courseValidator.BulkImportRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	added, draft := ctl.Drafts.ImportBulk(id, reqData.Text)
	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("%d questions imported!", added), fiber.Map{
		"added": added,
		"draft": draft,
	})
}

func (ctl *Controller) PublishDraft(c *fiber.Ctx) error {
	id, ok := adminID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	test, err := ctl.Drafts.Publish(c.UserContext(), id, database.Database.Store)
	var verr *authoring.ValidationError
	if errors.As(err, &verr) {
		return middleware.ValidationErrorResponse(c, verr.Fields)
	}
	if err != nil {
		return err
	}

	slog.Info("test published", "test", test.ID, "course", test.CourseID, "questions", len(test.Questions), "author", id)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Test published successfully!", test)
}
