package transcript

import (
	"errors"
	"sync"

	"rag-chat-cli/internal/domain"
)

// ErrStreamInFlight se devuelve cuando se intenta un append externo mientras
// hay un turno en streaming. Solo el pipeline de streaming puede escribir
// durante ese intervalo.
var ErrStreamInFlight = errors.New("transcript: stream in flight")

// Store mantiene la secuencia ordenada de mensajes de una conversacion.
// El mensaje en la posicion i es causalmente anterior al de i+1; solo el
// ultimo mensaje se muta en el lugar, y unicamente durante el streaming.
type Store struct {
	mu        sync.Mutex
	messages  []domain.Message
	streaming bool
}

// NewStore construye un store con los mensajes iniciales ya persistidos.
func NewStore(initial []domain.Message) *Store {
	msgs := make([]domain.Message, 0, len(initial))
	for _, m := range initial {
		msgs = append(msgs, m.Clone())
	}
	return &Store{messages: msgs}
}

// Append agrega un mensaje al final. Falla con ErrStreamInFlight si hay un
// turno en streaming: solo se permite una cadena de appends en vuelo.
func (s *Store) Append(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrStreamInFlight
	}
	s.messages = append(s.messages, msg.Clone())
	return nil
}

// BeginStream marca el inicio de un turno en streaming. A partir de aqui
// los appends externos se rechazan hasta EndStream.
func (s *Store) BeginStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = true
}

// EndStream cierra el turno en streaming y vuelve a aceptar appends.
func (s *Store) EndStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
}

// AppendFromStream agrega un mensaje desde el pipeline de streaming,
// ignorando la guarda de EndStream.
func (s *Store) AppendFromStream(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg.Clone())
}

// PatchLast agrega texto incremental al fragmento de texto final del ultimo
// mensaje, creandolo si no existe. Los deltas sucesivos se funden en un solo
// fragmento creciente.
func (s *Store) PatchLast(delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return
	}
	last := &s.messages[len(s.messages)-1]
	if n := len(last.Parts); n > 0 && last.Parts[n-1].Type == domain.PartTypeText {
		last.Parts[n-1].Text += delta
		return
	}
	last.Parts = append(last.Parts, domain.TextPart(delta))
}

// AppendPartToLast agrega un fragmento completo (por ejemplo un archivo) al
// final del ultimo mensaje.
func (s *Store) AppendPartToLast(part domain.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return
	}
	last := &s.messages[len(s.messages)-1]
	last.Parts = append(last.Parts, part)
}

// ReplaceLast sustituye el ultimo mensaje por su version final normalizada
// al completarse un turno del asistente.
func (s *Store) ReplaceLast(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return
	}
	s.messages[len(s.messages)-1] = msg.Clone()
}

// RemoveByID elimina un mensaje por id. Si el id no existe es un no-op.
func (s *Store) RemoveByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// Snapshot devuelve una copia del transcript para render.
func (s *Store) Snapshot() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Clone())
	}
	return out
}

// Last devuelve una copia del ultimo mensaje, si existe.
func (s *Store) Last() (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return domain.Message{}, false
	}
	return s.messages[len(s.messages)-1].Clone(), true
}

// Len devuelve la cantidad de mensajes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
