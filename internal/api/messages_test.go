package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"rag-chat-cli/internal/domain"
)

func TestClient_FetchAllMessages(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")
	st.AppendMessage(conv.ID, domain.Message{ID: "u1", Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart("hola")}})
	st.AppendMessage(conv.ID, domain.Message{ID: "a1", Role: domain.RoleAssistant, Parts: []domain.Part{domain.TextPart("que tal")}})

	msgs, err := client.FetchAllMessages(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Orden causal: el turno del usuario antes que el del asistente.
	if msgs[0].ID != "u1" || msgs[1].ID != "a1" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
	if msgs[1].Text() != "que tal" {
		t.Fatalf("unexpected assistant text: %q", msgs[1].Text())
	}
}

func TestClient_FetchMessagesPaged(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")
	for i := 0; i < 7; i++ {
		st.AppendMessage(conv.ID, domain.Message{ID: fmt.Sprintf("m%d", i), Role: domain.RoleUser})
	}

	page, err := client.FetchMessages(context.Background(), conv.ID, 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 5 || page.Items[0].ID != "m6" {
		t.Fatalf("expected newest-first page, got %+v", page.Items)
	}
	if !page.HasNext || page.NextCursor == nil {
		t.Fatal("expected a next page")
	}

	rest, err := client.FetchMessages(context.Background(), conv.ID, 5, *page.NextCursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest.Items) != 2 || rest.HasNext {
		t.Fatalf("unexpected terminal page: %+v", rest)
	}
}

func TestClient_DeleteMessagePair(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")
	st.AppendMessage(conv.ID, domain.Message{ID: "u1", Role: domain.RoleUser})
	st.AppendMessage(conv.ID, domain.Message{ID: "a1", Role: domain.RoleAssistant})

	err := client.DeleteMessagePair(context.Background(), domain.DeleteMessagesInput{
		ConversationID: conv.ID,
		UserMessageID:  "u1",
		AIMessageID:    "a1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs, _ := st.Messages(conv.ID)
	if len(msgs) != 0 {
		t.Fatalf("expected pair deleted, got %+v", msgs)
	}

	// Par inexistente: el stub responde 404.
	err = client.DeleteMessagePair(context.Background(), domain.DeleteMessagesInput{
		ConversationID: conv.ID,
		UserMessageID:  "u1",
		AIMessageID:    "a1",
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}
