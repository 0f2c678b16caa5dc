package domain

import (
	"encoding/base64"
	"strings"
)

// Roles posibles de un mensaje dentro de una conversacion.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Tipos de fragmento dentro de un mensaje.
const (
	PartTypeText = "text"
	PartTypeFile = "file"
)

// Part es un fragmento tipado de un mensaje: texto o archivo adjunto.
// El campo Type decide cuales campos son relevantes.
type Part struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// TextPart construye un fragmento de texto.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// MessageMetadata acompana los turnos del asistente una vez persistidos.
type MessageMetadata struct {
	ConversationID string `json:"conversationId,omitempty"`
	ModelProvider  string `json:"modelProvider,omitempty"`
}

// Message es un turno de una conversacion. El orden de Parts es el orden
// de render y nunca se reordena despues de creado el mensaje.
type Message struct {
	ID       string           `json:"id"`
	Role     string           `json:"role"`
	Parts    []Part           `json:"parts"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// Text concatena los fragmentos de texto del mensaje en orden.
// Los fragmentos de archivo se ignoran.
func (m Message) Text() string {
	var b strings.Builder
	for _, part := range m.Parts {
		switch part.Type {
		case PartTypeText:
			b.WriteString(part.Text)
		case PartTypeFile:
			// Los archivos no aportan texto.
		}
	}
	return b.String()
}

// Clone devuelve una copia profunda del mensaje.
func (m Message) Clone() Message {
	out := m
	out.Parts = make([]Part, len(m.Parts))
	copy(out.Parts, m.Parts)
	if m.Metadata != nil {
		md := *m.Metadata
		out.Metadata = &md
	}
	return out
}

// FileAttachment es un archivo seleccionado por el usuario antes de enviarlo.
type FileAttachment struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Part convierte el adjunto en un fragmento de archivo con data URL.
func (f FileAttachment) Part() Part {
	return Part{
		Type:      PartTypeFile,
		MediaType: f.MediaType,
		URL:       "data:" + f.MediaType + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		Filename:  f.Filename,
	}
}

// DeleteMessagesInput identifica el par usuario/asistente a borrar antes de
// regenerar: se conserva el turno del usuario y se descarta el del asistente.
type DeleteMessagesInput struct {
	ConversationID string `json:"conversationId"`
	UserMessageID  string `json:"userMessageId"`
	AIMessageID    string `json:"aiMessageId"`
}
