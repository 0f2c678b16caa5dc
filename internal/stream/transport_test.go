package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rag-chat-cli/internal/domain"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{done: make(chan struct{}, 1)}
}

func (r *eventRecorder) sink(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if ev.Type == EventFinish || ev.Type == EventError {
		select {
		case r.done <- struct{}{}:
		default:
		}
	}
}

func (r *eventRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal event")
	}
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func writeSSE(t *testing.T, w http.ResponseWriter, frame Frame) {
	t.Helper()
	payload, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	w.(http.Flusher).Flush()
}

func TestHTTPTransport_DeliversEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ConversationID != "c1" || req.LatestMessage.Text() != "hola" {
			t.Errorf("unexpected request body: %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, Frame{Type: FrameTextDelta, Delta: "Hola "})
		writeSSE(t, w, Frame{Type: FrameTextDelta, Delta: "mundo"})
		writeSSE(t, w, Frame{Type: FrameMetadata, Metadata: &domain.MessageMetadata{ConversationID: "c1"}})
		writeSSE(t, w, Frame{Type: FrameFinish})
		fmt.Fprintf(w, "data: %s\n\n", DoneMarker)
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, "", nil, nil)
	rec := newEventRecorder()
	transport.Start(context.Background(), Request{
		LatestMessage:  domain.Message{ID: "u1", Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart("hola")}},
		ConversationID: "c1",
	}, rec.sink)
	rec.wait(t)

	events := rec.snapshot()
	want := []string{EventDelta, EventDelta, EventMetadata, EventFinish}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, typ := range want {
		if events[i].Type != typ {
			t.Fatalf("event %d: expected %s, got %s", i, typ, events[i].Type)
		}
	}
	if events[0].Delta != "Hola " || events[1].Delta != "mundo" {
		t.Fatalf("unexpected deltas: %+v", events[:2])
	}
	if events[2].Metadata.ConversationID != "c1" {
		t.Fatalf("unexpected metadata: %+v", events[2].Metadata)
	}
}

func TestHTTPTransport_HTTPErrorEmitsErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"code":"NOT_FOUND","message":"conversation not found"}`)
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, "", nil, nil)
	rec := newEventRecorder()
	transport.Start(context.Background(), Request{ConversationID: "nope"}, rec.sink)
	rec.wait(t)

	events := rec.snapshot()
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if !strings.Contains(events[0].Err.Error(), "404") {
		t.Fatalf("expected status in error, got %v", events[0].Err)
	}
}

func TestHTTPTransport_ErrorFrameEmitsErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, Frame{Type: FrameTextDelta, Delta: "Hola"})
		writeSSE(t, w, Frame{Type: FrameError, ErrorText: "model exploded"})
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, "", nil, nil)
	rec := newEventRecorder()
	transport.Start(context.Background(), Request{ConversationID: "c1"}, rec.sink)
	rec.wait(t)

	events := rec.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected delta plus error, got %+v", events)
	}
	if events[1].Type != EventError || !strings.Contains(events[1].Err.Error(), "model exploded") {
		t.Fatalf("unexpected terminal event: %+v", events[1])
	}
}

func TestHTTPTransport_TruncatedStreamFinishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, Frame{Type: FrameTextDelta, Delta: "Hola"})
		// El stream corta sin frame de finish ni [DONE].
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, "", nil, nil)
	rec := newEventRecorder()
	transport.Start(context.Background(), Request{ConversationID: "c1"}, rec.sink)
	rec.wait(t)

	events := rec.snapshot()
	if len(events) != 2 || events[0].Type != EventDelta || events[1].Type != EventFinish {
		t.Fatalf("expected delta then finish, got %+v", events)
	}
}

func TestHTTPTransport_NoEventsAfterCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, Frame{Type: FrameTextDelta, Delta: "Hola"})
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	var mu sync.Mutex
	var events []Event
	first := make(chan struct{}, 1)
	sink := func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		select {
		case first <- struct{}{}:
		default:
		}
	}

	transport := NewHTTPTransport(srv.URL, "", nil, nil)
	handle := transport.Start(context.Background(), Request{ConversationID: "c1"}, sink)

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first delta")
	}
	handle.Cancel()

	mu.Lock()
	seen := len(events)
	mu.Unlock()

	// Cancel ya retorno: el sink no debe recibir nada mas.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(events) != seen {
		t.Fatalf("events delivered after cancel: %+v", events[seen:])
	}
	if events[0].Type != EventDelta || events[0].Delta != "Hola" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
}
