package session

import (
	"sync"

	"rag-chat-cli/internal/domain"
)

// PendingCreation es el puente de un solo slot entre el flujo de "nuevo
// chat" y la vista de conversacion recien montada: guarda el primer mensaje
// escrito antes de que exista el id de conversacion y se consume exactamente
// una vez. Gana el ultimo escritor; como maximo hay una creacion pendiente
// en todo el proceso.
type PendingCreation struct {
	mu       sync.Mutex
	creating bool
	message  string
	hasMsg   bool
	files    []domain.FileAttachment
}

// NewPendingCreation construye un puente vacio.
func NewPendingCreation() *PendingCreation {
	return &PendingCreation{}
}

// SetCreating registra el mensaje y los adjuntos del primer turno,
// sobrescribiendo cualquier registro pendiente anterior.
func (p *PendingCreation) SetCreating(message string, files []domain.FileAttachment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creating = true
	p.message = message
	p.hasMsg = true
	p.files = append([]domain.FileAttachment(nil), files...)
}

// TakeMessage devuelve el mensaje pendiente y lo limpia. La segunda llamada
// devuelve vacio: asi el handoff no se dispara dos veces.
func (p *PendingCreation) TakeMessage() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasMsg {
		return "", false
	}
	msg := p.message
	p.message = ""
	p.hasMsg = false
	return msg, true
}

// TakeFiles devuelve los adjuntos pendientes y los limpia.
func (p *PendingCreation) TakeFiles() []domain.FileAttachment {
	p.mu.Lock()
	defer p.mu.Unlock()
	files := p.files
	p.files = nil
	return files
}

// FinishCreating limpia el flag de creacion de forma atomica y devuelve si
// esta llamada fue la que lo consumio. Evita refrescar la lista de
// conversaciones mas de una vez si el fin de turno se observa dos veces.
func (p *PendingCreation) FinishCreating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.creating
	p.creating = false
	p.message = ""
	p.hasMsg = false
	p.files = nil
	return was
}

// Creating informa si hay una creacion en curso sin consumirla.
func (p *PendingCreation) Creating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creating
}
