package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

type startConversationRequest struct {
	ListingUUID string `json:"listing_uuid"`
	Body        string `json:"body"`
}

// HandleStartConversation opens (or reuses) the thread between the user and a
// listing's owner and posts the first message.
func HandleStartConversation(c *fiber.Ctx) error {
	var req startConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Body == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Message body required"})
	}

	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(req.ListingUUID)
	if err != nil {
		return renderError(c, err)
	}
	buyerID := usercontext.GetUserID(c)
	if listing.UserID == buyerID {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "You cannot message yourself"})
	}
	if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": "Listing is not available"})
	}

	repo := repository.GetGlobalFactory().GetConversationRepository()
	conversation, err := repo.FindOrCreate(listing, buyerID)
	if err != nil {
		return renderError(c, err)
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       buyerID,
		Body:           req.Body,
	}
	if err := repo.AddMessage(message); err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(listing.UserID, notify.TypeMessageReceived,
		"New message about \""+listing.Title+"\"", conversation.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation": conversation,
		"message":      message,
	})
}

// HandleGetConversations returns the user's message threads.
func HandleGetConversations(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	conversations, err := repository.GetGlobalFactory().GetConversationRepository().
		GetForUser(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": conversations, "offset": offset, "limit": limit})
}

// HandleGetMessages returns one thread's messages and marks the other party's
// messages read.
func HandleGetMessages(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetConversationRepository()
	conversation, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}

	userID := usercontext.GetUserID(c)
	if !conversation.Participates(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your conversation"})
	}

	offset, limit := parsePagination(c)
	messages, err := repo.GetMessages(conversation.ID, offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	if err := repo.MarkMessagesRead(conversation.ID, userID); err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"conversation": conversation, "messages": messages})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// HandleSendMessage appends a message to an existing thread.
func HandleSendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Body == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Message body required"})
	}

	repo := repository.GetGlobalFactory().GetConversationRepository()
	conversation, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}

	senderID := usercontext.GetUserID(c)
	if !conversation.Participates(senderID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your conversation"})
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Body:           req.Body,
	}
	if err := repo.AddMessage(message); err != nil {
		return renderError(c, err)
	}

	recipient := conversation.BuyerID
	if senderID == conversation.BuyerID {
		recipient = conversation.SellerID
	}
	engines.Dispatcher.Dispatch(recipient, notify.TypeMessageReceived, "New message", conversation.ID)

	return c.Status(fiber.StatusCreated).JSON(message)
}
