package api

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"rag-chat-cli/internal/domain"
)

const (
	cacheKeyHistory   = "conversations:history"
	cacheKeyFavorites = "conversations:favorites"
)

// ConversationCache cachea las listas de conversaciones del sidebar. La
// cache solo se puebla tras una respuesta confirmada y se invalida de forma
// explicita, por ejemplo al completar el primer turno de una conversacion
// nueva.
type ConversationCache struct {
	client *Client
	cache  *gocache.Cache
}

// NewConversationCache construye la cache con el TTL dado.
func NewConversationCache(client *Client, ttl time.Duration) *ConversationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConversationCache{
		client: client,
		cache:  gocache.New(ttl, 10*time.Minute),
	}
}

// History devuelve el historial, sirviendo de cache cuando hay una entrada
// vigente.
func (c *ConversationCache) History(ctx context.Context) (domain.Pagination[domain.Conversation], error) {
	if cached, ok := c.cache.Get(cacheKeyHistory); ok {
		return cached.(domain.Pagination[domain.Conversation]), nil
	}
	page, err := c.client.FetchHistory(ctx)
	if err != nil {
		return domain.Pagination[domain.Conversation]{}, err
	}
	c.cache.Set(cacheKeyHistory, page, gocache.DefaultExpiration)
	return page, nil
}

// Favorites devuelve las conversaciones favoritas, con cache.
func (c *ConversationCache) Favorites(ctx context.Context) ([]domain.Conversation, error) {
	if cached, ok := c.cache.Get(cacheKeyFavorites); ok {
		return cached.([]domain.Conversation), nil
	}
	favorites, err := c.client.FavoriteConversations(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKeyFavorites, favorites, gocache.DefaultExpiration)
	return favorites, nil
}

// Invalidate descarta las listas cacheadas; la proxima lectura vuelve al
// backend.
func (c *ConversationCache) Invalidate() {
	c.cache.Delete(cacheKeyHistory)
	c.cache.Delete(cacheKeyFavorites)
}
