package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"rag-chat-cli/internal/domain"
)

// ErrEmptyContent se devuelve al crear un embedding sin contenido.
var ErrEmptyContent = errors.New("api: embedding content must not be empty")

// CreateEmbedding registra un recurso a partir del texto extraido; el
// servidor lo trocea y embebe.
func (c *Client) CreateEmbedding(ctx context.Context, input domain.CreateEmbeddingInput) error {
	if strings.TrimSpace(input.Content) == "" {
		return ErrEmptyContent
	}
	_, err := call[any](ctx, c, http.MethodPost, "/api/rags", nil, input)
	return err
}

// ListResources devuelve una pagina de recursos del workspace.
func (c *Client) ListResources(ctx context.Context, direction, cursor string) (domain.Pagination[domain.Resource], error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	query.Set("limit", "10")
	if direction == "" {
		direction = "desc"
	}
	query.Set("direction", direction)
	return call[domain.Pagination[domain.Resource]](ctx, c, http.MethodGet, "/api/rags/resources", query, nil)
}

// ResourceDetail devuelve un recurso con todos sus chunks.
func (c *Client) ResourceDetail(ctx context.Context, resourceID string) (domain.ResourceDetail, error) {
	return call[domain.ResourceDetail](ctx, c, http.MethodGet, "/api/rags/resources/"+resourceID, nil, nil)
}

// DeleteResource borra un recurso junto con sus embeddings.
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/api/rags/resources/"+resourceID, nil, nil)
	return err
}

// DeleteChunk borra un embedding individual.
func (c *Client) DeleteChunk(ctx context.Context, chunkID string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/api/rags/chunks/"+chunkID, nil, nil)
	return err
}
