package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

// HandleGetNotifications returns the user's notifications with the unread count.
func HandleGetNotifications(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetNotificationRepository()

	notifications, err := repo.GetByUserID(userID, offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	unread, err := repo.CountUnread(userID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
		"offset":        offset,
		"limit":         limit,
	})
}

// HandleMarkNotificationRead marks one notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid notification id"})
	}

	if err := repository.GetGlobalFactory().GetNotificationRepository().
		MarkRead(uint(id), usercontext.GetUserID(c)); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMarkAllNotificationsRead clears the unread badge.
func HandleMarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := repository.GetGlobalFactory().GetNotificationRepository().
		MarkAllRead(usercontext.GetUserID(c)); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
