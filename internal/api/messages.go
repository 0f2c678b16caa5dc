package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"rag-chat-cli/internal/domain"
)

// FetchMessages devuelve una pagina de mensajes de la conversacion.
func (c *Client) FetchMessages(ctx context.Context, conversationID string, limit int, cursor string) (domain.Pagination[domain.Message], error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit <= 0 {
		limit = 20
	}
	query.Set("limit", strconv.Itoa(limit))
	return call[domain.Pagination[domain.Message]](ctx, c, http.MethodGet, "/api/conversations/"+conversationID, query, nil)
}

// FetchAllMessages devuelve todos los mensajes de la conversacion, en orden
// causal, para montar la vista con su transcript inicial.
func (c *Client) FetchAllMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return call[[]domain.Message](ctx, c, http.MethodGet, "/api/conversations/"+conversationID+"/messages", nil, nil)
}

// DeleteMessagePair borra el par usuario/asistente previo a una regeneracion.
func (c *Client) DeleteMessagePair(ctx context.Context, input domain.DeleteMessagesInput) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/api/messages", nil, input)
	return err
}
