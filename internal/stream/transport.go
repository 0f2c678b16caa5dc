package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rag-chat-cli/internal/domain"
)

// HTTPTransport implementa Transport contra el endpoint de streaming del
// backend usando Server-Sent Events.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPTransport construye un transporte apuntando al endpoint de chat.
// El timeout del http.Client debe ser cero: la duracion del stream la
// gobierna el contexto, no el cliente.
func NewHTTPTransport(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		logger:  logger,
	}
}

type httpHandle struct {
	mu       sync.Mutex
	canceled bool
	abort    context.CancelFunc
}

func (h *httpHandle) Cancel() {
	h.mu.Lock()
	h.canceled = true
	h.mu.Unlock()
	h.abort()
}

// emit entrega un evento al sink salvo que la llamada ya este cancelada.
// El lock cubre tambien la invocacion: Cancel no retorna con un emit a medias.
func (h *httpHandle) emit(sink Sink, ev Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canceled {
		return false
	}
	sink(ev)
	return true
}

// Start devuelve un handle cancelable de inmediato y procesa la llamada de
// red en una goroutine. Los eventos llegan al sink en orden de llegada.
func (t *HTTPTransport) Start(ctx context.Context, req Request, sink Sink) Handle {
	ctx, abort := context.WithCancel(ctx)
	h := &httpHandle{abort: abort}

	go func() {
		defer abort()
		if err := t.run(ctx, req, sink, h); err != nil {
			if ctx.Err() != nil {
				// Cancelado por el caller: no se emite nada mas.
				return
			}
			t.logger.Warn("stream failed", zap.Error(err))
			h.emit(sink, Event{Type: EventError, Err: err})
		}
	}()

	return h
}

func (t *HTTPTransport) run(ctx context.Context, req Request, sink Sink, h *httpHandle) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/conversations", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.logger.Warn("stream http error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return fmt.Errorf("stream http error: status=%d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == DoneMarker {
			h.emit(sink, Event{Type: EventFinish})
			return nil
		}

		var frame Frame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if done, err := t.dispatch(frame, sink, h); err != nil || done {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	// El stream corta sin frame de finish: lo tratamos como finalizado.
	h.emit(sink, Event{Type: EventFinish})
	return nil
}

// dispatch traduce un frame a su evento. Devuelve done en frames terminales.
func (t *HTTPTransport) dispatch(frame Frame, sink Sink, h *httpHandle) (bool, error) {
	switch frame.Type {
	case FrameTextDelta:
		h.emit(sink, Event{Type: EventDelta, Delta: frame.Delta})
	case FrameFile:
		h.emit(sink, Event{Type: EventFile, Part: domain.Part{
			Type:      domain.PartTypeFile,
			MediaType: frame.MediaType,
			URL:       frame.URL,
			Filename:  frame.Filename,
		}})
	case FrameMetadata:
		if frame.Metadata != nil {
			h.emit(sink, Event{Type: EventMetadata, Metadata: *frame.Metadata})
		}
	case FrameFinish:
		h.emit(sink, Event{Type: EventFinish})
		return true, nil
	case FrameError:
		return true, fmt.Errorf("stream error frame: %s", frame.ErrorText)
	default:
		// Frames desconocidos se ignoran para tolerar extensiones del protocolo.
		t.logger.Debug("unknown frame type", zap.String("type", frame.Type))
	}
	return false, nil
}
