package session

import (
	"testing"

	"rag-chat-cli/internal/domain"
)

func TestPendingCreation_TakeMessageOnce(t *testing.T) {
	p := NewPendingCreation()
	p.SetCreating("hola", nil)

	msg, ok := p.TakeMessage()
	if !ok || msg != "hola" {
		t.Fatalf("expected pending message, got (%q, %v)", msg, ok)
	}

	// La segunda toma no devuelve nada: el handoff no se repite.
	msg, ok = p.TakeMessage()
	if ok || msg != "" {
		t.Fatalf("expected empty second take, got (%q, %v)", msg, ok)
	}
}

func TestPendingCreation_LastWriterWins(t *testing.T) {
	p := NewPendingCreation()
	p.SetCreating("primero", nil)
	p.SetCreating("segundo", []domain.FileAttachment{{Filename: "a.txt", MediaType: "text/plain"}})

	msg, ok := p.TakeMessage()
	if !ok || msg != "segundo" {
		t.Fatalf("expected last registration to win, got (%q, %v)", msg, ok)
	}
	files := p.TakeFiles()
	if len(files) != 1 || files[0].Filename != "a.txt" {
		t.Fatalf("expected the last registration's files, got %+v", files)
	}
}

func TestPendingCreation_FinishCreatingIsAtomic(t *testing.T) {
	p := NewPendingCreation()
	p.SetCreating("hola", nil)

	if !p.Creating() {
		t.Fatal("expected creating flag set")
	}
	if !p.FinishCreating() {
		t.Fatal("expected first FinishCreating to consume the flag")
	}
	if p.FinishCreating() {
		t.Fatal("expected second FinishCreating to report already consumed")
	}
	if p.Creating() {
		t.Fatal("expected creating flag cleared")
	}
}

func TestPendingCreation_EmptyBridge(t *testing.T) {
	p := NewPendingCreation()

	if _, ok := p.TakeMessage(); ok {
		t.Fatal("expected no pending message on an empty bridge")
	}
	if p.FinishCreating() {
		t.Fatal("expected FinishCreating false on an empty bridge")
	}
}
