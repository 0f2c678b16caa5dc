package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag-chat-cli/internal/domain"
)

// conversationHandler atiende el CRUD de conversaciones y mensajes.
type conversationHandler struct {
	logger *zap.Logger
	store  *Store
}

func newConversationHandler(logger *zap.Logger, store *Store) *conversationHandler {
	return &conversationHandler{logger: logger, store: store}
}

// Create maneja POST /api/conversations/new.
func (h *conversationHandler) Create(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create conversation request", zap.Error(err))
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "message is required")
		return
	}

	conv := h.store.CreateConversation(req.Message)
	respondOK(c, http.StatusCreated, "conversation created", gin.H{"conversationId": conv.ID})
}

// List maneja GET /api/conversations con paginacion por cursor.
func (h *conversationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))
	page := h.store.ListConversations(
		c.Query("cursor"),
		limit,
		c.DefaultQuery("direction", "desc"),
		c.Query("filter"),
		c.Query("includeFavorite") == "true",
	)
	respondOK(c, http.StatusOK, "conversations listed", page)
}

// Favorites maneja GET /api/conversations/favorites.
func (h *conversationHandler) Favorites(c *gin.Context) {
	respondOK(c, http.StatusOK, "favorites listed", h.store.Favorites())
}

// PageMessages maneja GET /api/conversations/:id con paginacion.
func (h *conversationHandler) PageMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, ok := h.store.PageMessages(c.Param("id"), c.Query("cursor"), limit)
	if !ok {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "messages listed", page)
}

// AllMessages maneja GET /api/conversations/:id/messages.
func (h *conversationHandler) AllMessages(c *gin.Context) {
	msgs, ok := h.store.Messages(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "messages listed", msgs)
}

// Rename maneja PATCH /api/conversations/:id.
func (h *conversationHandler) Rename(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "title is required")
		return
	}
	if !h.store.Rename(c.Param("id"), strings.TrimSpace(req.Title)) {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "conversation renamed", nil)
}

// Delete maneja DELETE /api/conversations/:id.
func (h *conversationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.store.DeleteConversation(id) {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "conversation deleted", gin.H{"conversationId": id})
}

// AddFavorite maneja POST /api/conversations/:id/favorites.
func (h *conversationHandler) AddFavorite(c *gin.Context) {
	if !h.store.SetFavorite(c.Param("id"), true) {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "conversation added to favorites", nil)
}

// RemoveFavorite maneja DELETE /api/conversations/:id/favorites.
func (h *conversationHandler) RemoveFavorite(c *gin.Context) {
	if !h.store.SetFavorite(c.Param("id"), false) {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}
	respondOK(c, http.StatusOK, "conversation removed from favorites", nil)
}

// DeleteMessagePair maneja DELETE /api/messages: borra el par previo a una
// regeneracion.
func (h *conversationHandler) DeleteMessagePair(c *gin.Context) {
	var req domain.DeleteMessagesInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request")
		return
	}
	if !h.store.DeleteMessagePair(req.ConversationID, req.UserMessageID, req.AIMessageID) {
		respondError(c, http.StatusNotFound, codeNotFound, "message pair not found")
		return
	}
	respondOK(c, http.StatusOK, "messages deleted", gin.H{"messageId": req.AIMessageID})
}
