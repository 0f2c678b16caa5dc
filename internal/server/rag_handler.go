package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ragHandler atiende el workspace de recursos y embeddings.
type ragHandler struct {
	logger *zap.Logger
	store  *Store
}

func newRagHandler(logger *zap.Logger, store *Store) *ragHandler {
	return &ragHandler{logger: logger, store: store}
}

// CreateEmbedding maneja POST /api/rags.
func (h *ragHandler) CreateEmbedding(c *gin.Context) {
	var req struct {
		Content       string `json:"content" binding:"required"`
		ResourceName  string `json:"resourceName"`
		DocsLanguages string `json:"docsLanguages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "content is required")
		return
	}

	fileType := "text"
	switch {
	case strings.HasSuffix(strings.ToLower(req.ResourceName), ".txt"):
		fileType = "txt"
	case strings.HasSuffix(strings.ToLower(req.ResourceName), ".pdf"):
		fileType = "pdf"
	}
	res := h.store.CreateResource(req.ResourceName, fileType, req.Content)
	h.logger.Info("resource created",
		zap.String("resource_id", res.ID),
		zap.String("name", res.Name),
	)
	respondOK(c, http.StatusCreated, "embedding created", nil)
}

// ListResources maneja GET /api/rags/resources.
func (h *ragHandler) ListResources(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page := h.store.ListResources(c.Query("cursor"), limit, c.DefaultQuery("direction", "desc"))
	respondOK(c, http.StatusOK, "resources listed", page)
}

// ResourceDetail maneja GET /api/rags/resources/:id.
func (h *ragHandler) ResourceDetail(c *gin.Context) {
	detail, ok := h.store.ResourceDetail(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	respondOK(c, http.StatusOK, "resource detail", detail)
}

// DeleteResource maneja DELETE /api/rags/resources/:id.
func (h *ragHandler) DeleteResource(c *gin.Context) {
	if !h.store.DeleteResource(c.Param("id")) {
		respondError(c, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	respondOK(c, http.StatusOK, "resource deleted", nil)
}

// DeleteChunk maneja DELETE /api/rags/chunks/:id.
func (h *ragHandler) DeleteChunk(c *gin.Context) {
	if !h.store.DeleteChunk(c.Param("id")) {
		respondError(c, http.StatusNotFound, codeNotFound, "chunk not found")
		return
	}
	respondOK(c, http.StatusOK, "chunk deleted", nil)
}
