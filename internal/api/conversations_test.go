package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClient_CreateConversation(t *testing.T) {
	client, st := newTestClient(t)

	id, err := client.CreateConversation(context.Background(), "hola, necesito ayuda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv, ok := st.GetConversation(id)
	if !ok {
		t.Fatal("expected conversation persisted in the stub")
	}
	if conv.Title != "hola, necesito ayuda" {
		t.Fatalf("expected title derived from first message, got %q", conv.Title)
	}

	// El mensaje vacio se bloquea en el cliente, sin llamada de red.
	if _, err := client.CreateConversation(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestClient_ListConversationsPagination(t *testing.T) {
	client, st := newTestClient(t)
	for i := 0; i < 20; i++ {
		st.CreateConversation(fmt.Sprintf("conversacion %02d", i))
	}

	first, err := client.ListConversations(context.Background(), ListConversationsParams{IncludeFavorite: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Items) != 15 {
		t.Fatalf("expected default page of 15, got %d", len(first.Items))
	}
	if !first.HasNext || first.NextCursor == nil {
		t.Fatalf("expected a next page: %+v", first)
	}
	if first.TotalElements != 20 {
		t.Fatalf("expected total 20, got %d", first.TotalElements)
	}

	second, err := client.ListConversations(context.Background(), ListConversationsParams{
		Cursor:          *first.NextCursor,
		IncludeFavorite: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Items) != 5 {
		t.Fatalf("expected remaining 5, got %d", len(second.Items))
	}
	if second.HasNext || second.NextCursor != nil {
		t.Fatalf("expected terminal page: %+v", second)
	}
}

func TestClient_ListConversationsFilter(t *testing.T) {
	client, st := newTestClient(t)
	st.CreateConversation("receta de pan")
	st.CreateConversation("plan de viaje")

	page, err := client.ListConversations(context.Background(), ListConversationsParams{
		Filter:          "RECETA",
		IncludeFavorite: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "receta de pan" {
		t.Fatalf("unexpected filter result: %+v", page.Items)
	}
}

func TestClient_RenameConversation(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")

	if err := client.RenameConversation(context.Background(), conv.ID, "titulo nuevo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	renamed, _ := st.GetConversation(conv.ID)
	if renamed.Title != "titulo nuevo" {
		t.Fatalf("expected renamed title, got %q", renamed.Title)
	}

	// El titulo vacio se bloquea en el cliente.
	if err := client.RenameConversation(context.Background(), conv.ID, "  "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestClient_DeleteConversation(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")

	if err := client.DeleteConversation(context.Background(), conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.GetConversation(conv.ID); ok {
		t.Fatal("expected conversation deleted")
	}
}

func TestClient_Favorites(t *testing.T) {
	client, st := newTestClient(t)
	conv := st.CreateConversation("hola")

	if err := client.AddFavorite(context.Background(), conv.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	favs, err := client.FavoriteConversations(context.Background())
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 1 || favs[0].ID != conv.ID || !favs[0].IsFavorite {
		t.Fatalf("unexpected favorites: %+v", favs)
	}

	if err := client.RemoveFavorite(context.Background(), conv.ID); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	favs, err = client.FavoriteConversations(context.Background())
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 0 {
		t.Fatalf("expected empty favorites, got %+v", favs)
	}
}
