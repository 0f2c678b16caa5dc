package session

import (
	"errors"

	"rag-chat-cli/internal/domain"
)

// MaxAttachments es la cantidad maxima de adjuntos por envio.
const MaxAttachments = 10

var (
	// ErrInvalidAttachmentType se devuelve al seleccionar un archivo que no
	// es txt ni imagen soportada. No se agrega nada al estado.
	ErrInvalidAttachmentType = errors.New("composer: only txt or image attachments allowed")
	// ErrTooManyAttachments se devuelve al superar MaxAttachments.
	ErrTooManyAttachments = errors.New("composer: attachment limit reached")
)

var allowedAttachmentTypes = map[string]bool{
	"text/plain": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Composer acumula el texto y los adjuntos del campo de entrada antes del
// envio. La validacion de tipo y cantidad ocurre al seleccionar, no al enviar.
type Composer struct {
	files []domain.FileAttachment
}

// AddFile valida y agrega un adjunto.
func (c *Composer) AddFile(f domain.FileAttachment) error {
	if !allowedAttachmentTypes[f.MediaType] {
		return ErrInvalidAttachmentType
	}
	if len(c.files) >= MaxAttachments {
		return ErrTooManyAttachments
	}
	c.files = append(c.files, f)
	return nil
}

// RemoveFile quita el adjunto en la posicion dada; fuera de rango es no-op.
func (c *Composer) RemoveFile(index int) {
	if index < 0 || index >= len(c.files) {
		return
	}
	c.files = append(c.files[:index], c.files[index+1:]...)
}

// Files devuelve una copia de los adjuntos acumulados.
func (c *Composer) Files() []domain.FileAttachment {
	return append([]domain.FileAttachment(nil), c.files...)
}

// Clear limpia el estado despues de un envio.
func (c *Composer) Clear() {
	c.files = nil
}
