package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
)

// HandleGetCategories returns the active categories for browsing.
func HandleGetCategories(c *fiber.Ctx) error {
	categories, err := repository.GetGlobalFactory().GetCategoryRepository().GetActive()
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

type categoryRequest struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	IsActive *bool  `json:"is_active"`
}

// HandleCreateCategory adds a category. Staff only.
func HandleCreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	category := &models.Category{
		Slug:     req.Slug,
		Name:     req.Name,
		Position: req.Position,
		IsActive: true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := repository.GetGlobalFactory().GetCategoryRepository().Create(category); err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory edits a category. Staff only.
func HandleUpdateCategory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid category id"})
	}

	repo := repository.GetGlobalFactory().GetCategoryRepository()
	category, err := repo.GetByID(uint(id))
	if err != nil {
		return renderError(c, err)
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if req.Slug != "" {
		category.Slug = req.Slug
	}
	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Position != 0 {
		category.Position = req.Position
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := repo.Update(category); err != nil {
		return renderError(c, err)
	}
	return c.JSON(category)
}
