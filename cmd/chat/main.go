package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag-chat-cli/internal/api"
	"rag-chat-cli/internal/config"
	"rag-chat-cli/internal/domain"
	"rag-chat-cli/internal/session"
	"rag-chat-cli/internal/settings"
	"rag-chat-cli/internal/stream"
	"rag-chat-cli/internal/workspace"
)

type app struct {
	lines     chan string
	client    *api.Client
	cache     *api.ConversationCache
	transport *stream.HTTPTransport
	pending   *session.PendingCreation
	settings  *settings.Store
	uploader  *workspace.Uploader
	logger    *zap.Logger
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	settingsStore, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Fatal(err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.APIKey, nil, logger)
	a := &app{
		lines:     make(chan string),
		client:    client,
		cache:     api.NewConversationCache(client, 5*time.Minute),
		transport: stream.NewHTTPTransport(cfg.APIBaseURL, cfg.APIKey, nil, logger),
		pending:   session.NewPendingCreation(),
		settings:  settingsStore,
		uploader:  workspace.NewUploader(client, logger),
		logger:    logger,
	}

	// Todo el input pasa por un canal: asi el loop de turno puede esperar a
	// la vez el fin del stream y un "/stop" del usuario.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			a.lines <- scanner.Text()
		}
		close(a.lines)
	}()

	a.run(ctx)
}

func (a *app) run(ctx context.Context) {
	for {
		fmt.Println("\n===== RAG Chat =====")
		fmt.Println("[1] Nuevo chat")
		fmt.Println("[2] Abrir conversacion")
		fmt.Println("[3] Historial")
		fmt.Println("[4] Favoritos")
		fmt.Println("[5] Buscar conversaciones")
		fmt.Println("[6] Workspace RAG")
		fmt.Println("[7] Ajustes")
		fmt.Println("[8] Salir")

		choice, ok := a.readLine("Selecciona una opcion: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			if err := a.newChatFlow(ctx); err != nil {
				fmt.Printf("Error creando chat: %v\n", err)
			}
		case "2":
			if err := a.openFlow(ctx); err != nil {
				fmt.Printf("Error abriendo conversacion: %v\n", err)
			}
		case "3":
			if err := a.historyFlow(ctx); err != nil {
				fmt.Printf("Error listando historial: %v\n", err)
			}
		case "4":
			if err := a.favoritesFlow(ctx); err != nil {
				fmt.Printf("Error listando favoritos: %v\n", err)
			}
		case "5":
			if err := a.searchFlow(ctx); err != nil {
				fmt.Printf("Error buscando: %v\n", err)
			}
		case "6":
			if err := a.workspaceFlow(ctx); err != nil {
				fmt.Printf("Error en workspace: %v\n", err)
			}
		case "7":
			a.settingsFlow()
		case "8":
			os.Exit(0)
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

// readLine muestra el prompt y espera la siguiente linea de stdin.
func (a *app) readLine(prompt string) (string, bool) {
	fmt.Print(prompt)
	line, ok := <-a.lines
	if !ok {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (a *app) sendOptions() session.SendOptions {
	s := a.settings.Get()
	return session.SendOptions{ModelProvider: s.ModelProvider, IsRag: s.IsRag}
}

// newChatFlow crea la conversacion a partir del primer mensaje y deja ese
// mensaje en el puente pendiente; la vista de chat lo envia al montarse.
func (a *app) newChatFlow(ctx context.Context) error {
	message, ok := a.readLine("Primer mensaje: ")
	if !ok || message == "" {
		return errors.New("mensaje vacio")
	}

	conversationID, err := a.client.CreateConversation(ctx, message)
	if err != nil {
		return err
	}
	a.pending.SetCreating(message, nil)

	return a.chatFlow(ctx, conversationID, nil)
}

func (a *app) openFlow(ctx context.Context) error {
	page, err := a.cache.History(ctx)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Println("No hay conversaciones todavia.")
		return nil
	}

	for i, conv := range page.Items {
		fmt.Printf("[%d] %s%s\n", i+1, conv.Title, favoriteMark(conv))
	}
	choice, ok := a.readLine("Selecciona una conversacion: ")
	if !ok || choice == "" {
		return nil
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(page.Items) {
		fmt.Println("Seleccion invalida.")
		return nil
	}
	selected := page.Items[idx-1]

	initial, err := a.client.FetchAllMessages(ctx, selected.ID)
	if err != nil {
		return err
	}
	printTranscript(initial)
	return a.chatFlow(ctx, selected.ID, initial)
}

// chatFlow corre la vista de conversacion: envia turnos, imprime los deltas
// a medida que llegan y atiende los comandos de la sesion.
func (a *app) chatFlow(ctx context.Context, conversationID string, initial []domain.Message) error {
	done := make(chan struct{}, 1)
	ctrl := session.NewController(session.ControllerConfig{
		ConversationID: conversationID,
		Initial:        initial,
		Transport:      a.transport,
		Pending:        a.pending,
		Lists:          a.cache,
		Logger:         a.logger,
		OnDelta:        func(delta string) { fmt.Print(delta) },
		OnFinish: func() {
			fmt.Println()
			done <- struct{}{}
		},
		OnError: func(err error) {
			fmt.Printf("\nError en el turno: %v\n", err)
			done <- struct{}{}
		},
	})

	fmt.Println("---- Modo Chat ----")
	fmt.Println("Comandos: /stop /regenerar /adjuntar <ruta> /adjuntos /historial /salir")

	if consumed, err := ctrl.ConsumePending(ctx, a.sendOptions()); err != nil {
		return err
	} else if consumed {
		fmt.Print("IA > ")
		a.waitTurn(ctrl, done)
	}

	var composer session.Composer
	for {
		text, ok := a.readLine("Tu > ")
		if !ok {
			return nil
		}
		if text == "" {
			continue
		}

		switch {
		case strings.EqualFold(text, "/salir"):
			ctrl.Stop()
			return nil
		case strings.EqualFold(text, "/stop"):
			ctrl.Stop()
			continue
		case strings.EqualFold(text, "/regenerar"):
			if err := a.regenerateFlow(ctx, ctrl, conversationID, done); err != nil {
				fmt.Printf("No se pudo regenerar: %v\n", err)
			}
			continue
		case strings.HasPrefix(text, "/adjuntar "):
			a.attachFlow(&composer, strings.TrimSpace(strings.TrimPrefix(text, "/adjuntar ")))
			continue
		case strings.EqualFold(text, "/adjuntos"):
			files := composer.Files()
			if len(files) == 0 {
				fmt.Println("Sin adjuntos pendientes.")
			}
			for i, f := range files {
				fmt.Printf("[%d] %s (%s)\n", i+1, f.Filename, f.MediaType)
			}
			continue
		case strings.EqualFold(text, "/historial"):
			printTranscript(ctrl.Messages())
			continue
		}

		err := ctrl.Send(ctx, session.SendInput{Text: text, Files: composer.Files()}, a.sendOptions())
		switch {
		case errors.Is(err, session.ErrBusy):
			fmt.Println("Hay un turno en vuelo; usa /stop para cancelarlo.")
			continue
		case err != nil:
			fmt.Printf("No se pudo enviar: %v\n", err)
			continue
		}
		composer.Clear()

		fmt.Print("IA > ")
		a.waitTurn(ctrl, done)
	}
}

// waitTurn espera el fin del turno en vuelo sin dejar de leer stdin, para
// que "/stop" funcione a mitad del stream.
func (a *app) waitTurn(ctrl *session.Controller, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case line, ok := <-a.lines:
			if !ok {
				ctrl.Stop()
				return
			}
			if strings.EqualFold(strings.TrimSpace(line), "/stop") {
				ctrl.Stop()
				// Si el finish llego justo antes del stop, drena la senal
				// para que no cuente contra el proximo turno.
				select {
				case <-done:
				default:
				}
				fmt.Println("\n[turno detenido]")
				return
			}
		}
	}
}

// regenerateFlow borra el ultimo par usuario/asistente en el servidor y
// vuelve a generar la respuesta reusando el mismo mensaje de usuario.
func (a *app) regenerateFlow(ctx context.Context, ctrl *session.Controller, conversationID string, done chan struct{}) error {
	msgs := ctrl.Messages()
	if len(msgs) < 2 {
		return errors.New("no hay un intercambio que regenerar")
	}
	assistant := msgs[len(msgs)-1]
	user := msgs[len(msgs)-2]

	if err := a.client.DeleteMessagePair(ctx, domain.DeleteMessagesInput{
		ConversationID: conversationID,
		UserMessageID:  user.ID,
		AIMessageID:    assistant.ID,
	}); err != nil {
		// El stub asigna sus propios ids a los turnos persistidos del
		// asistente, asi que el borrado remoto puede no encontrar el par;
		// la regeneracion local sigue siendo valida.
		a.logger.Warn("delete message pair failed", zap.Error(err))
	}

	if err := ctrl.Regenerate(ctx, session.RegenerateRequest{
		ConversationID: conversationID,
		UserMessageID:  user.ID,
		AIMessageID:    assistant.ID,
	}, a.sendOptions()); err != nil {
		return err
	}

	fmt.Print("IA > ")
	a.waitTurn(ctrl, done)
	return nil
}

func (a *app) attachFlow(composer *session.Composer, path string) {
	if path == "" {
		fmt.Println("Falta la ruta del archivo.")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("No se pudo leer %s: %v\n", path, err)
		return
	}
	name := filepath.Base(path)
	if err := composer.AddFile(domain.FileAttachment{
		Filename:  name,
		MediaType: attachmentMediaType(name),
		Data:      data,
	}); err != nil {
		fmt.Printf("Adjunto rechazado: %v\n", err)
		return
	}
	fmt.Printf("Adjuntado %s.\n", name)
}

func (a *app) historyFlow(ctx context.Context) error {
	page, err := a.cache.History(ctx)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Println("No hay conversaciones todavia.")
		return nil
	}
	for i, conv := range page.Items {
		fmt.Printf("[%d] %s%s (ID: %s)\n", i+1, conv.Title, favoriteMark(conv), conv.ID)
	}
	fmt.Println("[F <n>] Favorito  [R <n>] Renombrar  [D <n>] Borrar  [enter] Volver")

	choice, ok := a.readLine("Accion: ")
	if !ok || choice == "" {
		return nil
	}
	parts := strings.Fields(choice)
	if len(parts) != 2 {
		fmt.Println("Accion invalida.")
		return nil
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 1 || idx > len(page.Items) {
		fmt.Println("Seleccion invalida.")
		return nil
	}
	conv := page.Items[idx-1]

	switch strings.ToUpper(parts[0]) {
	case "F":
		if conv.IsFavorite {
			err = a.client.RemoveFavorite(ctx, conv.ID)
		} else {
			err = a.client.AddFavorite(ctx, conv.ID)
		}
	case "R":
		title, ok := a.readLine("Nuevo titulo: ")
		if !ok {
			return nil
		}
		err = a.client.RenameConversation(ctx, conv.ID, title)
	case "D":
		err = a.client.DeleteConversation(ctx, conv.ID)
	default:
		fmt.Println("Accion invalida.")
		return nil
	}
	if err != nil {
		return err
	}
	a.cache.Invalidate()
	fmt.Println("Listo.")
	return nil
}

func (a *app) favoritesFlow(ctx context.Context) error {
	favorites, err := a.cache.Favorites(ctx)
	if err != nil {
		return err
	}
	if len(favorites) == 0 {
		fmt.Println("No hay favoritos.")
		return nil
	}
	for i, conv := range favorites {
		fmt.Printf("[%d] %s (ID: %s)\n", i+1, conv.Title, conv.ID)
	}
	return nil
}

func (a *app) searchFlow(ctx context.Context) error {
	filter, ok := a.readLine("Buscar por titulo: ")
	if !ok || filter == "" {
		return nil
	}
	page, err := a.client.ListConversations(ctx, api.ListConversationsParams{
		Filter:          filter,
		IncludeFavorite: true,
	})
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Println("Sin resultados.")
		return nil
	}
	for i, conv := range page.Items {
		fmt.Printf("[%d] %s%s (ID: %s)\n", i+1, conv.Title, favoriteMark(conv), conv.ID)
	}
	return nil
}

func (a *app) workspaceFlow(ctx context.Context) error {
	for {
		fmt.Println("\n--- Workspace RAG ---")
		fmt.Println("[1] Listar recursos")
		fmt.Println("[2] Ver detalle de recurso")
		fmt.Println("[3] Subir archivos")
		fmt.Println("[4] Borrar recurso")
		fmt.Println("[5] Borrar chunk")
		fmt.Println("[6] Volver")

		choice, ok := a.readLine("Selecciona una opcion: ")
		if !ok {
			return nil
		}
		var err error
		switch choice {
		case "1":
			err = a.listResourcesFlow(ctx)
		case "2":
			err = a.resourceDetailFlow(ctx)
		case "3":
			a.uploadFlow(ctx)
		case "4":
			err = a.deleteByID(ctx, "ID del recurso: ", a.client.DeleteResource)
		case "5":
			err = a.deleteByID(ctx, "ID del chunk: ", a.client.DeleteChunk)
		case "6":
			return nil
		default:
			fmt.Println("Opcion invalida.")
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func (a *app) listResourcesFlow(ctx context.Context) error {
	cursor := ""
	for {
		page, err := a.client.ListResources(ctx, "desc", cursor)
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			fmt.Println("No hay recursos.")
			return nil
		}
		for _, res := range page.Items {
			fmt.Printf("- %s [%s] (ID: %s)\n", res.Name, res.FileType, res.ID)
		}
		if !page.HasNext || page.NextCursor == nil {
			return nil
		}
		more, ok := a.readLine("Mas resultados? [s/N]: ")
		if !ok || !strings.EqualFold(more, "s") {
			return nil
		}
		cursor = *page.NextCursor
	}
}

func (a *app) resourceDetailFlow(ctx context.Context) error {
	id, ok := a.readLine("ID del recurso: ")
	if !ok || id == "" {
		return nil
	}
	detail, err := a.client.ResourceDetail(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s [%s] — %d chunks\n", detail.Name, detail.FileType, len(detail.Embeddings))
	for i, chunk := range detail.Embeddings {
		preview := chunk.Content
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		fmt.Printf("[%d] %s (ID: %s)\n", i+1, preview, chunk.ID)
	}
	return nil
}

func (a *app) uploadFlow(ctx context.Context) {
	line, ok := a.readLine("Rutas (separadas por espacio): ")
	if !ok || line == "" {
		return
	}
	result := a.uploader.UploadPaths(ctx, strings.Fields(line))
	fmt.Printf("%d archivo(s) procesados.\n", result.SuccessCount)
	for _, fe := range result.Errors {
		fmt.Printf("Fallo %s: %v\n", fe.Filename, fe.Err)
	}
}

func (a *app) deleteByID(ctx context.Context, prompt string, del func(context.Context, string) error) error {
	id, ok := a.readLine(prompt)
	if !ok || id == "" {
		return nil
	}
	if err := del(ctx, id); err != nil {
		return err
	}
	fmt.Println("Borrado.")
	return nil
}

func (a *app) settingsFlow() {
	current := a.settings.Get()
	fmt.Printf("\nModelo: %s | RAG: %v\n", current.ModelProvider, current.IsRag)
	fmt.Println("[1] Cambiar modelo")
	fmt.Println("[2] Activar/desactivar RAG")
	fmt.Println("[3] Volver")

	choice, ok := a.readLine("Selecciona una opcion: ")
	if !ok {
		return
	}
	switch choice {
	case "1":
		provider, ok := a.readLine("Nombre del modelo: ")
		if !ok {
			return
		}
		if err := a.settings.SetModelProvider(provider); err != nil {
			fmt.Printf("No se pudo guardar: %v\n", err)
		}
	case "2":
		if err := a.settings.SetIsRag(!current.IsRag); err != nil {
			fmt.Printf("No se pudo guardar: %v\n", err)
		}
	case "3":
	default:
		fmt.Println("Opcion invalida.")
	}
}

func printTranscript(msgs []domain.Message) {
	for _, m := range msgs {
		role := "IA"
		if m.Role == domain.RoleUser {
			role = "Tu"
		}
		text := m.Text()
		if text == "" {
			text = "(sin texto)"
		}
		fmt.Printf("%s > %s\n", role, text)
	}
}

func favoriteMark(conv domain.Conversation) string {
	if conv.IsFavorite {
		return " *"
	}
	return ""
}

func attachmentMediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
