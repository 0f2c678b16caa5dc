package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rag-chat-cli/internal/domain"
	"rag-chat-cli/internal/ident"
	"rag-chat-cli/internal/stream"
	"rag-chat-cli/internal/transcript"
)

// Status es el estado de la sesion completa; aplica a todo el transcript,
// no a mensajes individuales.
type Status string

const (
	StatusReady     Status = "ready"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
)

var (
	// ErrBusy se devuelve al intentar enviar mientras hay un turno en vuelo.
	// Solo se produce un turno del asistente por envio.
	ErrBusy = errors.New("session: a turn is already in flight")
	// ErrEmptyInput se devuelve ante un envio sin texto ni adjuntos; no se
	// emite ninguna peticion.
	ErrEmptyInput = errors.New("session: empty input")
	// ErrNotLastExchange se devuelve al regenerar un turno que no es el
	// ultimo intercambio del transcript.
	ErrNotLastExchange = errors.New("session: regenerate target is not the last exchange")
)

// ListInvalidator refresca las listas de conversaciones cacheadas cuando se
// completa el primer turno de una conversacion nueva.
type ListInvalidator interface {
	Invalidate()
}

// SendInput agrupa el texto y los adjuntos de un envio.
type SendInput struct {
	Text  string
	Files []domain.FileAttachment
}

// SendOptions viaja con cada peticion de generacion.
type SendOptions struct {
	ModelProvider string
	IsRag         bool
}

// RegenerateRequest identifica el turno de usuario a conservar y el del
// asistente a descartar y reemplazar.
type RegenerateRequest struct {
	ConversationID string
	UserMessageID  string
	AIMessageID    string
}

// ControllerConfig agrupa las dependencias del controlador de sesion.
// Los hooks son opcionales y pueden quedar en nil.
type ControllerConfig struct {
	ConversationID string
	Initial        []domain.Message
	Transport      stream.Transport
	Pending        *PendingCreation
	IDs            ident.Generator
	Lists          ListInvalidator
	Logger         *zap.Logger
	OnDelta        func(delta string)
	OnFinish       func()
	OnError        func(err error)
}

// Controller orquesta el transcript y el transporte de streaming para una
// conversacion: maquina de estados, envio, stop y regeneracion, mas el
// handoff del mensaje pendiente creado en el flujo de nuevo chat. Nunca
// lanza panics a traves de su frontera publica: las fallas se representan
// como StatusError mas el transcript parcial.
type Controller struct {
	conversationID string
	store          *transcript.Store
	transport      stream.Transport
	pending        *PendingCreation
	ids            ident.Generator
	lists          ListInvalidator
	logger         *zap.Logger
	onDelta        func(string)
	onFinish       func()
	onError        func(error)

	mu            sync.Mutex
	status        Status
	handle        stream.Handle
	assistantOpen bool
	pendingMeta   *domain.MessageMetadata
}

// NewController construye un controlador en estado ready.
func NewController(cfg ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = ident.NewMessageIDs()
	}
	return &Controller{
		conversationID: cfg.ConversationID,
		store:          transcript.NewStore(cfg.Initial),
		transport:      cfg.Transport,
		pending:        cfg.Pending,
		ids:            ids,
		lists:          cfg.Lists,
		logger:         logger,
		onDelta:        cfg.OnDelta,
		onFinish:       cfg.OnFinish,
		onError:        cfg.OnError,
		status:         StatusReady,
	}
}

// Status devuelve el estado actual de la sesion.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages devuelve una copia del transcript para render.
func (c *Controller) Messages() []domain.Message {
	return c.store.Snapshot()
}

// Send construye el turno del usuario a partir del input y abre el stream.
// Solo es valido desde ready o error; con un turno en vuelo devuelve ErrBusy.
func (c *Controller) Send(ctx context.Context, input SendInput, opts SendOptions) error {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Files) == 0 {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.status == StatusSubmitted || c.status == StatusStreaming {
		c.mu.Unlock()
		return ErrBusy
	}

	userMsg := domain.Message{ID: c.ids.New(), Role: domain.RoleUser}
	for _, f := range input.Files {
		userMsg.Parts = append(userMsg.Parts, f.Part())
	}
	if text != "" {
		userMsg.Parts = append(userMsg.Parts, domain.TextPart(text))
	}
	if err := c.store.Append(userMsg); err != nil {
		c.mu.Unlock()
		return err
	}

	c.beginTurn(ctx, userMsg, opts)
	return nil
}

// Regenerate reemplaza el ultimo turno del asistente reusando el mensaje de
// usuario existente: no se crea un usuario duplicado. El caller debe haber
// borrado primero el par en el servidor. Solo se admite el ultimo
// intercambio; cualquier otro objetivo devuelve ErrNotLastExchange.
func (c *Controller) Regenerate(ctx context.Context, req RegenerateRequest, opts SendOptions) error {
	c.mu.Lock()
	if c.status == StatusSubmitted || c.status == StatusStreaming {
		c.mu.Unlock()
		return ErrBusy
	}

	msgs := c.store.Snapshot()
	if len(msgs) < 2 {
		c.mu.Unlock()
		return ErrNotLastExchange
	}
	assistant := msgs[len(msgs)-1]
	user := msgs[len(msgs)-2]
	if assistant.Role != domain.RoleAssistant || assistant.ID != req.AIMessageID {
		c.mu.Unlock()
		return ErrNotLastExchange
	}
	if user.Role != domain.RoleUser || user.ID != req.UserMessageID {
		c.mu.Unlock()
		return ErrNotLastExchange
	}

	c.store.RemoveByID(req.AIMessageID)
	c.beginTurn(ctx, user, opts)
	return nil
}

// beginTurn transiciona a submitted y abre el stream. Se entra con c.mu
// tomado y se sale sin el: el transporte puede entregar eventos de forma
// sincrona y el sink vuelve a tomar el lock.
func (c *Controller) beginTurn(ctx context.Context, latest domain.Message, opts SendOptions) {
	c.status = StatusSubmitted
	c.assistantOpen = false
	c.pendingMeta = nil
	c.store.BeginStream()
	c.mu.Unlock()

	handle := c.transport.Start(ctx, stream.Request{
		LatestMessage:  latest,
		ConversationID: c.conversationID,
		ModelProvider:  opts.ModelProvider,
		IsRag:          opts.IsRag,
	}, c.apply)

	c.mu.Lock()
	c.handle = handle
	c.mu.Unlock()
}

// Stop cancela el turno en vuelo. El mensaje parcial del asistente se
// conserva tal cual, sin marcarlo como erroneo, y el estado vuelve a ready.
// Fuera de submitted/streaming es un no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.status != StatusSubmitted && c.status != StatusStreaming {
		c.mu.Unlock()
		return
	}
	handle := c.handle
	c.mu.Unlock()

	// Cancel se invoca fuera del lock: un evento en vuelo puede estar
	// esperando c.mu y Cancel no retorna hasta que termine.
	if handle != nil {
		handle.Cancel()
	}

	c.mu.Lock()
	if c.status == StatusSubmitted || c.status == StatusStreaming {
		c.store.EndStream()
		c.status = StatusReady
		c.assistantOpen = false
		c.pendingMeta = nil
	}
	c.mu.Unlock()
}

// ConsumePending toma el mensaje pendiente del flujo de nuevo chat, si lo
// hay, y lo envia una sola vez. Devuelve true si habia handoff.
func (c *Controller) ConsumePending(ctx context.Context, opts SendOptions) (bool, error) {
	if c.pending == nil {
		return false, nil
	}
	msg, ok := c.pending.TakeMessage()
	files := c.pending.TakeFiles()
	if !ok || strings.TrimSpace(msg) == "" {
		return false, nil
	}
	return true, c.Send(ctx, SendInput{Text: msg, Files: files}, opts)
}

// apply es el sink del transporte: aplica cada evento al transcript en el
// orden de llegada.
func (c *Controller) apply(ev stream.Event) {
	switch ev.Type {
	case stream.EventDelta:
		c.mu.Lock()
		if c.status == StatusSubmitted {
			c.status = StatusStreaming
		}
		c.openAssistantLocked()
		c.store.PatchLast(ev.Delta)
		onDelta := c.onDelta
		c.mu.Unlock()
		if onDelta != nil {
			onDelta(ev.Delta)
		}

	case stream.EventFile:
		c.mu.Lock()
		if c.status == StatusSubmitted {
			c.status = StatusStreaming
		}
		c.openAssistantLocked()
		c.store.AppendPartToLast(ev.Part)
		c.mu.Unlock()

	case stream.EventMetadata:
		c.mu.Lock()
		md := ev.Metadata
		c.pendingMeta = &md
		c.mu.Unlock()

	case stream.EventFinish:
		c.finishTurn()

	case stream.EventError:
		c.mu.Lock()
		c.status = StatusError
		c.store.EndStream()
		c.assistantOpen = false
		c.pendingMeta = nil
		onError := c.onError
		c.mu.Unlock()
		c.logger.Warn("turn failed",
			zap.String("conversation_id", c.conversationID),
			zap.Error(ev.Err),
		)
		if onError != nil {
			onError(ev.Err)
		}
	}
}

// openAssistantLocked agrega el mensaje del asistente para este turno si
// todavia no existe.
func (c *Controller) openAssistantLocked() {
	if c.assistantOpen {
		return
	}
	c.store.AppendFromStream(domain.Message{ID: c.ids.New(), Role: domain.RoleAssistant})
	c.assistantOpen = true
}

// finishTurn normaliza el mensaje acumulado, vuelve a ready y, si este turno
// completo una conversacion creada via el puente pendiente, refresca la
// lista de conversaciones exactamente una vez.
func (c *Controller) finishTurn() {
	c.mu.Lock()
	if c.assistantOpen {
		if last, ok := c.store.Last(); ok {
			if c.pendingMeta != nil {
				last.Metadata = c.pendingMeta
			}
			c.store.ReplaceLast(last)
		}
	}
	c.store.EndStream()
	c.status = StatusReady
	c.assistantOpen = false
	c.pendingMeta = nil
	onFinish := c.onFinish
	c.mu.Unlock()

	if c.pending != nil && c.pending.FinishCreating() && c.lists != nil {
		c.lists.Invalidate()
	}
	if onFinish != nil {
		onFinish()
	}
}
