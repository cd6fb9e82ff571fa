package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"propertymatch/internal/conversation"
	"propertymatch/internal/model"
	"propertymatch/internal/repository"
	"propertymatch/internal/service"
)

// ChatHandler exposes the guided conversation over HTTP
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Start handles POST /api/v1/chat/sessions
func (h *ChatHandler) Start(c *gin.Context) {
	reply, err := h.chat.Start(c.Request.Context())
	if err != nil {
		c.JSON(chatStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// Get handles GET /api/v1/chat/sessions/:id
func (h *ChatHandler) Get(c *gin.Context) {
	reply, err := h.chat.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(chatStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Act handles POST /api/v1/chat/sessions/:id/actions
func (h *ChatHandler) Act(c *gin.Context) {
	var action model.ChatAction
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.chat.Handle(c.Request.Context(), c.Param("id"), action)
	if err != nil {
		c.JSON(chatStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// End handles DELETE /api/v1/chat/sessions/:id
func (h *ChatHandler) End(c *gin.Context) {
	if err := h.chat.End(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(chatStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func chatStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrInvalidAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
