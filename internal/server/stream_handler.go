package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rag-chat-cli/internal/domain"
	"rag-chat-cli/internal/stream"
)

// streamHandler atiende el endpoint de generacion por streaming. Emite el
// mismo protocolo SSE que consume el transporte del cliente.
type streamHandler struct {
	logger *zap.Logger
	store  *Store
	delay  time.Duration
}

func newStreamHandler(logger *zap.Logger, store *Store, delay time.Duration) *streamHandler {
	return &streamHandler{logger: logger, store: store, delay: delay}
}

// Chat maneja POST /api/conversations: persiste el turno del usuario y
// transmite la respuesta generada en deltas.
func (h *streamHandler) Chat(c *gin.Context) {
	var req stream.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request")
		return
	}
	if _, ok := h.store.GetConversation(req.ConversationID); !ok {
		respondError(c, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}

	userMsg := req.LatestMessage
	if userMsg.ID == "" {
		userMsg.ID = uuid.NewString()
	}
	userMsg.Role = domain.RoleUser
	h.store.AppendMessage(req.ConversationID, userMsg)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, codeInvalidRequest, "streaming unsupported")
		return
	}

	reply := h.replyText(req)
	var sent strings.Builder
	for _, delta := range chunkWords(reply) {
		select {
		case <-c.Request.Context().Done():
			// El cliente cancelo: lo ya enviado queda persistido como
			// turno parcial.
			h.persistAssistant(req, sent.String())
			return
		default:
		}
		h.writeFrame(c, flusher, stream.Frame{Type: stream.FrameTextDelta, Delta: delta})
		sent.WriteString(delta)
		if h.delay > 0 {
			time.Sleep(h.delay)
		}
	}

	h.writeFrame(c, flusher, stream.Frame{
		Type: stream.FrameMetadata,
		Metadata: &domain.MessageMetadata{
			ConversationID: req.ConversationID,
			ModelProvider:  req.ModelProvider,
		},
	})
	h.writeFrame(c, flusher, stream.Frame{Type: stream.FrameFinish})
	fmt.Fprintf(c.Writer, "data: %s\n\n", stream.DoneMarker)
	flusher.Flush()

	h.persistAssistant(req, sent.String())
}

func (h *streamHandler) writeFrame(c *gin.Context, flusher http.Flusher, frame stream.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encode frame failed", zap.Error(err))
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	flusher.Flush()
}

func (h *streamHandler) persistAssistant(req stream.Request, text string) {
	if text == "" {
		return
	}
	h.store.AppendMessage(req.ConversationID, domain.Message{
		ID:    uuid.NewString(),
		Role:  domain.RoleAssistant,
		Parts: []domain.Part{domain.TextPart(text)},
		Metadata: &domain.MessageMetadata{
			ConversationID: req.ConversationID,
			ModelProvider:  req.ModelProvider,
		},
	})
}

// replyText arma la respuesta canned del stub. Con RAG activo menciona
// cuantos recursos habria consultado.
func (h *streamHandler) replyText(req stream.Request) string {
	userText := strings.TrimSpace(req.LatestMessage.Text())
	if userText == "" {
		userText = "(no text)"
	}
	reply := fmt.Sprintf("You said: %q. This is a stubbed reply from %s.", userText, req.ModelProvider)
	if req.IsRag {
		reply += fmt.Sprintf(" Consulted %d workspace resources.", h.store.ResourceCount())
	}
	return reply
}

// chunkWords corta el texto en deltas por palabra, conservando espacios,
// para simular la llegada incremental del modelo.
func chunkWords(text string) []string {
	words := strings.SplitAfter(text, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
