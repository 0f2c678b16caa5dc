package stream

import (
	"context"

	"rag-chat-cli/internal/domain"
)

// Tipos de frame del protocolo de streaming. Cada linea "data:" del stream
// SSE contiene un Frame en JSON; el stream termina con "data: [DONE]".
const (
	FrameTextDelta = "text-delta"
	FrameFile      = "file"
	FrameMetadata  = "message-metadata"
	FrameFinish    = "finish"
	FrameError     = "error"
)

// DoneMarker cierra el stream despues del frame de finish o error.
const DoneMarker = "[DONE]"

// Frame es la unidad del protocolo en el cable. Lo comparten el transporte
// del cliente y el endpoint de streaming del stub.
type Frame struct {
	Type      string                  `json:"type"`
	Delta     string                  `json:"delta,omitempty"`
	MediaType string                  `json:"mediaType,omitempty"`
	URL       string                  `json:"url,omitempty"`
	Filename  string                  `json:"filename,omitempty"`
	Metadata  *domain.MessageMetadata `json:"metadata,omitempty"`
	ErrorText string                  `json:"errorText,omitempty"`
}

// Request describe la peticion de generacion de un turno.
type Request struct {
	LatestMessage  domain.Message `json:"message"`
	ConversationID string         `json:"conversationId"`
	ModelProvider  string         `json:"modelProvider"`
	IsRag          bool           `json:"isRag"`
}

// Tipos de evento entregados al sink, en orden estricto de llegada.
const (
	EventDelta    = "delta"
	EventFile     = "file"
	EventMetadata = "metadata"
	EventFinish   = "finish"
	EventError    = "error"
)

// Event es un evento de protocolo ya decodificado.
type Event struct {
	Type     string
	Delta    string
	Part     domain.Part
	Metadata domain.MessageMetadata
	Err      error
}

// Sink recibe los eventos de una llamada a Start. El transporte garantiza
// que despues de Cancel no se invoca mas.
type Sink func(Event)

// Handle permite cancelar la llamada en vuelo.
type Handle interface {
	Cancel()
}

// Transport abre un stream unidireccional de eventos para un turno.
type Transport interface {
	Start(ctx context.Context, req Request, sink Sink) Handle
}
