package server

import (
	"fmt"
	"strings"
	"testing"

	"rag-chat-cli/internal/domain"
)

func seedConversations(s *Store, n int) []domain.Conversation {
	out := make([]domain.Conversation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.CreateConversation(fmt.Sprintf("mensaje %02d", i)))
	}
	return out
}

func TestStore_ListConversationsPagination(t *testing.T) {
	s := NewStore()
	seedConversations(s, 25)

	var (
		cursor string
		seen   []string
		pages  int
	)
	for {
		page := s.ListConversations(cursor, 10, "desc", "", true)
		pages++
		for _, conv := range page.Items {
			seen = append(seen, conv.ID)
		}
		if page.TotalElements != 25 {
			t.Fatalf("expected total 25, got %d", page.TotalElements)
		}
		if page.HasNext {
			if page.NextCursor == nil {
				t.Fatal("hasNext true requires a cursor")
			}
			cursor = *page.NextCursor
			continue
		}
		if page.NextCursor != nil {
			t.Fatal("hasNext false requires a nil cursor")
		}
		break
	}

	if pages != 3 {
		t.Fatalf("expected 3 pages of 10/10/5, got %d", pages)
	}
	if len(seen) != 25 {
		t.Fatalf("expected every conversation exactly once, got %d", len(seen))
	}
	unique := make(map[string]bool)
	for _, id := range seen {
		if unique[id] {
			t.Fatalf("conversation %s appeared twice across pages", id)
		}
		unique[id] = true
	}
}

func TestStore_ListConversationsCursorIsStable(t *testing.T) {
	s := NewStore()
	seedConversations(s, 12)

	first := s.ListConversations("", 5, "desc", "", true)
	again := s.ListConversations("", 5, "desc", "", true)
	if len(first.Items) != 5 || len(again.Items) != 5 {
		t.Fatalf("expected pages of 5, got %d and %d", len(first.Items), len(again.Items))
	}
	for i := range first.Items {
		if first.Items[i].ID != again.Items[i].ID {
			t.Fatalf("same query returned different pages at %d", i)
		}
	}
}

func TestStore_ListConversationsFilter(t *testing.T) {
	s := NewStore()
	s.CreateConversation("receta de pan")
	s.CreateConversation("plan de viaje")
	s.CreateConversation("RECETA de pizza")

	page := s.ListConversations("", 10, "desc", "receta", true)
	if len(page.Items) != 2 {
		t.Fatalf("expected case-insensitive title match, got %+v", page.Items)
	}
}

func TestStore_FavoritesExcludedFromDefaultListing(t *testing.T) {
	s := NewStore()
	convs := seedConversations(s, 3)
	s.SetFavorite(convs[1].ID, true)

	page := s.ListConversations("", 10, "desc", "", false)
	for _, conv := range page.Items {
		if conv.ID == convs[1].ID {
			t.Fatal("favorite leaked into the non-favorite listing")
		}
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 non-favorites, got %d", len(page.Items))
	}

	favs := s.Favorites()
	if len(favs) != 1 || favs[0].ID != convs[1].ID {
		t.Fatalf("unexpected favorites: %+v", favs)
	}
}

func TestStore_TitleDerivedFromFirstMessage(t *testing.T) {
	s := NewStore()
	long := strings.Repeat("a", 80)
	conv := s.CreateConversation(long)
	if len(conv.Title) != 50 {
		t.Fatalf("expected title truncated to 50 chars, got %d", len(conv.Title))
	}
}

func TestStore_DeleteMessagePairRequiresBoth(t *testing.T) {
	s := NewStore()
	conv := s.CreateConversation("hola")
	s.AppendMessage(conv.ID, domain.Message{ID: "u1", Role: domain.RoleUser})
	s.AppendMessage(conv.ID, domain.Message{ID: "a1", Role: domain.RoleAssistant})

	if s.DeleteMessagePair(conv.ID, "u1", "missing") {
		t.Fatal("expected failure when the assistant message does not exist")
	}
	if msgs, _ := s.Messages(conv.ID); len(msgs) != 2 {
		t.Fatalf("expected messages untouched, got %d", len(msgs))
	}

	if !s.DeleteMessagePair(conv.ID, "u1", "a1") {
		t.Fatal("expected pair deletion to succeed")
	}
	if msgs, _ := s.Messages(conv.ID); len(msgs) != 0 {
		t.Fatalf("expected empty conversation, got %d messages", len(msgs))
	}
}

func TestStore_PageMessagesNewestFirst(t *testing.T) {
	s := NewStore()
	conv := s.CreateConversation("hola")
	for i := 0; i < 5; i++ {
		s.AppendMessage(conv.ID, domain.Message{ID: fmt.Sprintf("m%d", i), Role: domain.RoleUser})
	}

	page, ok := s.PageMessages(conv.ID, "", 3)
	if !ok {
		t.Fatal("expected conversation found")
	}
	if len(page.Items) != 3 || page.Items[0].ID != "m4" {
		t.Fatalf("expected newest first, got %+v", page.Items)
	}
	if !page.HasNext || page.NextCursor == nil {
		t.Fatal("expected a next page")
	}

	rest, _ := s.PageMessages(conv.ID, *page.NextCursor, 3)
	if len(rest.Items) != 2 || rest.Items[0].ID != "m1" {
		t.Fatalf("unexpected second page: %+v", rest.Items)
	}
	if rest.HasNext || rest.NextCursor != nil {
		t.Fatal("expected terminal page")
	}
}

func TestStore_CreateResourceChunksContent(t *testing.T) {
	s := NewStore()
	content := strings.Repeat("x", chunkSize*2+100)
	res := s.CreateResource("notas.txt", "txt", content)

	detail, ok := s.ResourceDetail(res.ID)
	if !ok {
		t.Fatal("expected resource found")
	}
	if len(detail.Embeddings) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(detail.Embeddings))
	}
	if len(detail.Embeddings[0].Content) != chunkSize {
		t.Fatalf("expected full first chunk, got %d runes", len(detail.Embeddings[0].Content))
	}
	if len(detail.Embeddings[2].Content) != 100 {
		t.Fatalf("expected 100 rune tail chunk, got %d", len(detail.Embeddings[2].Content))
	}
}

func TestStore_DeleteChunkAndResource(t *testing.T) {
	s := NewStore()
	res := s.CreateResource("notas.txt", "txt", "contenido corto")
	detail, _ := s.ResourceDetail(res.ID)
	if len(detail.Embeddings) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(detail.Embeddings))
	}

	if !s.DeleteChunk(detail.Embeddings[0].ID) {
		t.Fatal("expected chunk deletion to succeed")
	}
	if s.DeleteChunk("missing") {
		t.Fatal("expected unknown chunk deletion to fail")
	}

	if !s.DeleteResource(res.ID) {
		t.Fatal("expected resource deletion to succeed")
	}
	if s.ResourceCount() != 0 {
		t.Fatalf("expected empty workspace, got %d resources", s.ResourceCount())
	}
}
