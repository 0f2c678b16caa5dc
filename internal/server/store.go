package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rag-chat-cli/internal/domain"
)

// Store es el almacen en memoria del stub: conversaciones con sus mensajes
// y recursos con sus embeddings. No hay persistencia; todo vive detras de un
// mutex y muere con el proceso.
type Store struct {
	mu            sync.Mutex
	seq           int
	conversations map[string]*conversationRecord
	resources     map[string]*resourceRecord
}

type conversationRecord struct {
	seq      int
	conv     domain.Conversation
	messages []domain.Message
}

type resourceRecord struct {
	seq        int
	res        domain.Resource
	embeddings []domain.Embedding
}

// chunkSize es el tamano de chunk del troceado naive de recursos.
const chunkSize = 500

// NewStore construye un almacen vacio.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*conversationRecord),
		resources:     make(map[string]*resourceRecord),
	}
}

// CreateConversation crea una conversacion cuyo titulo deriva del primer
// mensaje.
func (s *Store) CreateConversation(firstMessage string) domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := strings.TrimSpace(firstMessage)
	if len(title) > 50 {
		title = title[:50]
	}
	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.seq++
	s.conversations[conv.ID] = &conversationRecord{seq: s.seq, conv: conv}
	return conv
}

// GetConversation devuelve la conversacion si existe.
func (s *Store) GetConversation(id string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, false
	}
	return rec.conv, true
}

// ListConversations devuelve una pagina ordenada por recencia. El filtro
// busca dentro del titulo, sin distinguir mayusculas.
func (s *Store) ListConversations(cursor string, limit int, direction, filter string, includeFavorite bool) domain.Pagination[domain.Conversation] {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*conversationRecord, 0, len(s.conversations))
	for _, rec := range s.conversations {
		if filter != "" && !strings.Contains(strings.ToLower(rec.conv.Title), strings.ToLower(filter)) {
			continue
		}
		if !includeFavorite && rec.conv.IsFavorite {
			// Los favoritos viven en su propia seccion del sidebar.
			continue
		}
		records = append(records, rec)
	}
	sortRecords(records, direction)

	items := make([]domain.Conversation, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		items[i] = rec.conv
		ids[i] = rec.conv.ID
	}
	return paginate(items, ids, cursor, limit)
}

// Favorites devuelve las conversaciones favoritas por recencia.
func (s *Store) Favorites() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*conversationRecord, 0)
	for _, rec := range s.conversations {
		if rec.conv.IsFavorite {
			records = append(records, rec)
		}
	}
	sortRecords(records, "desc")
	out := make([]domain.Conversation, len(records))
	for i, rec := range records {
		out[i] = rec.conv
	}
	return out
}

// Rename cambia el titulo; devuelve false si la conversacion no existe.
func (s *Store) Rename(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[id]
	if !ok {
		return false
	}
	rec.conv.Title = title
	rec.conv.UpdatedAt = time.Now().UTC()
	return true
}

// DeleteConversation borra la conversacion completa.
func (s *Store) DeleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return false
	}
	delete(s.conversations, id)
	return true
}

// SetFavorite marca o desmarca la conversacion como favorita.
func (s *Store) SetFavorite(id string, favorite bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[id]
	if !ok {
		return false
	}
	rec.conv.IsFavorite = favorite
	return true
}

// AppendMessage agrega un mensaje al final de la conversacion.
func (s *Store) AppendMessage(conversationID string, msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[conversationID]
	if !ok {
		return false
	}
	rec.messages = append(rec.messages, msg.Clone())
	rec.conv.UpdatedAt = time.Now().UTC()
	return true
}

// Messages devuelve todos los mensajes en orden causal.
func (s *Store) Messages(conversationID string) ([]domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[conversationID]
	if !ok {
		return nil, false
	}
	out := make([]domain.Message, 0, len(rec.messages))
	for _, m := range rec.messages {
		out = append(out, m.Clone())
	}
	return out, true
}

// PageMessages devuelve una pagina de mensajes hacia atras desde el cursor.
func (s *Store) PageMessages(conversationID, cursor string, limit int) (domain.Pagination[domain.Message], bool) {
	msgs, ok := s.Messages(conversationID)
	if !ok {
		return domain.Pagination[domain.Message]{}, false
	}
	// Mas recientes primero para paginar hacia atras.
	reversed := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		reversed[len(msgs)-1-i] = m
	}
	ids := make([]string, len(reversed))
	for i, m := range reversed {
		ids[i] = m.ID
	}
	return paginate(reversed, ids, cursor, limit), true
}

// DeleteMessagePair borra el turno del usuario y el del asistente previos a
// una regeneracion. Devuelve false si alguno de los dos no existe.
func (s *Store) DeleteMessagePair(conversationID, userMessageID, aiMessageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[conversationID]
	if !ok {
		return false
	}
	userIdx, aiIdx := -1, -1
	for i, m := range rec.messages {
		switch m.ID {
		case userMessageID:
			userIdx = i
		case aiMessageID:
			aiIdx = i
		}
	}
	if userIdx < 0 || aiIdx < 0 {
		return false
	}
	kept := rec.messages[:0]
	for i, m := range rec.messages {
		if i == userIdx || i == aiIdx {
			continue
		}
		kept = append(kept, m)
	}
	rec.messages = kept
	return true
}

// CreateResource registra un recurso y trocea su contenido en embeddings.
func (s *Store) CreateResource(name, fileType, content string) domain.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = "pasted-text"
	}
	if fileType == "" {
		fileType = "text"
	}
	res := domain.Resource{
		ID:        uuid.NewString(),
		UserID:    "local",
		Name:      name,
		FileType:  fileType,
		CreatedAt: time.Now().UTC(),
	}
	rec := &resourceRecord{res: res}
	for _, chunk := range chunkText(content, chunkSize) {
		rec.embeddings = append(rec.embeddings, domain.Embedding{
			ID:      uuid.NewString(),
			Content: chunk,
		})
	}
	s.seq++
	rec.seq = s.seq
	s.resources[res.ID] = rec
	return res
}

// ListResources devuelve una pagina de recursos.
func (s *Store) ListResources(cursor string, limit int, direction string) domain.Pagination[domain.Resource] {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*resourceRecord, 0, len(s.resources))
	for _, rec := range s.resources {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if direction == "asc" {
			return records[i].seq < records[j].seq
		}
		return records[i].seq > records[j].seq
	})

	items := make([]domain.Resource, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		items[i] = rec.res
		ids[i] = rec.res.ID
	}
	return paginate(items, ids, cursor, limit)
}

// ResourceDetail devuelve el recurso con sus embeddings.
func (s *Store) ResourceDetail(id string) (domain.ResourceDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.resources[id]
	if !ok {
		return domain.ResourceDetail{}, false
	}
	detail := domain.ResourceDetail{Resource: rec.res}
	detail.Embeddings = append(detail.Embeddings, rec.embeddings...)
	return detail, true
}

// DeleteResource borra el recurso y todos sus chunks.
func (s *Store) DeleteResource(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return false
	}
	delete(s.resources, id)
	return true
}

// DeleteChunk borra un embedding individual buscandolo entre los recursos.
func (s *Store) DeleteChunk(chunkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.resources {
		for i, emb := range rec.embeddings {
			if emb.ID == chunkID {
				rec.embeddings = append(rec.embeddings[:i], rec.embeddings[i+1:]...)
				return true
			}
		}
	}
	return false
}

// ResourceCount devuelve la cantidad de recursos registrados.
func (s *Store) ResourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}

func sortRecords(records []*conversationRecord, direction string) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.conv.UpdatedAt.Equal(b.conv.UpdatedAt) {
			if direction == "asc" {
				return a.conv.UpdatedAt.Before(b.conv.UpdatedAt)
			}
			return a.conv.UpdatedAt.After(b.conv.UpdatedAt)
		}
		if direction == "asc" {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})
}

// paginate corta una pagina de items ya ordenados. El cursor es el id del
// ultimo item de la pagina anterior; HasNext en false implica NextCursor nil.
func paginate[T any](items []T, ids []string, cursor string, limit int) domain.Pagination[T] {
	if limit <= 0 {
		limit = 15
	}
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	page := domain.Pagination[T]{
		Items:         append([]T(nil), items[start:end]...),
		TotalElements: len(items),
		HasNext:       end < len(items),
	}
	if page.HasNext {
		next := ids[end-1]
		page.NextCursor = &next
	}
	return page
}

// chunkText corta el texto en trozos de a lo sumo size runas.
func chunkText(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
