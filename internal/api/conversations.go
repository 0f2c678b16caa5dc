package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rag-chat-cli/internal/domain"
)

var (
	// ErrEmptyTitle se devuelve al renombrar con titulo vacio; la peticion
	// no llega a emitirse.
	ErrEmptyTitle = errors.New("api: conversation title must not be empty")
	// ErrEmptyMessage se devuelve al crear una conversacion sin mensaje.
	ErrEmptyMessage = errors.New("api: first message must not be empty")
)

// ListConversationsParams parametriza el listado paginado por cursor.
type ListConversationsParams struct {
	Cursor          string
	Limit           int
	Direction       string
	Filter          string
	IncludeFavorite bool
}

// CreateConversation crea una conversacion nueva a partir del primer mensaje
// y devuelve su identificador. El mensaje en si no se envia aqui: queda en
// el puente pendiente hasta que la vista de conversacion se monta.
func (c *Client) CreateConversation(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	data, err := call[struct {
		ConversationID string `json:"conversationId"`
	}](ctx, c, http.MethodPost, "/api/conversations/new", nil, map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	return data.ConversationID, nil
}

// ListConversations devuelve una pagina de conversaciones, descendente por
// defecto.
func (c *Client) ListConversations(ctx context.Context, p ListConversationsParams) (domain.Pagination[domain.Conversation], error) {
	query := url.Values{}
	if p.Cursor != "" {
		query.Set("cursor", p.Cursor)
	}
	if p.Limit <= 0 {
		p.Limit = 15
	}
	query.Set("limit", strconv.Itoa(p.Limit))
	if p.Direction == "" {
		p.Direction = "desc"
	}
	query.Set("direction", p.Direction)
	if p.IncludeFavorite {
		query.Set("includeFavorite", "true")
	}
	if p.Filter != "" {
		query.Set("filter", p.Filter)
	}
	return call[domain.Pagination[domain.Conversation]](ctx, c, http.MethodGet, "/api/conversations", query, nil)
}

// FetchHistory devuelve la primera pagina del historial del sidebar.
func (c *Client) FetchHistory(ctx context.Context) (domain.Pagination[domain.Conversation], error) {
	query := url.Values{}
	query.Set("limit", "20")
	query.Set("direction", "desc")
	return call[domain.Pagination[domain.Conversation]](ctx, c, http.MethodGet, "/api/conversations", query, nil)
}

// FavoriteConversations devuelve las conversaciones marcadas como favoritas.
func (c *Client) FavoriteConversations(ctx context.Context) ([]domain.Conversation, error) {
	return call[[]domain.Conversation](ctx, c, http.MethodGet, "/api/conversations/favorites", nil, nil)
}

// RenameConversation actualiza el titulo. El titulo vacio se bloquea en el
// cliente antes de cualquier llamada de red.
func (c *Client) RenameConversation(ctx context.Context, conversationID, title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	_, err := call[any](ctx, c, http.MethodPatch, "/api/conversations/"+conversationID, nil, map[string]string{"title": title})
	return err
}

// DeleteConversation borra una conversacion completa.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/api/conversations/"+conversationID, nil, nil)
	return err
}

// AddFavorite agrega la conversacion a favoritos.
func (c *Client) AddFavorite(ctx context.Context, conversationID string) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/conversations/"+conversationID+"/favorites", nil, nil)
	return err
}

// RemoveFavorite quita la conversacion de favoritos.
func (c *Client) RemoveFavorite(ctx context.Context, conversationID string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/api/conversations/"+conversationID+"/favorites", nil, nil)
	return err
}
