package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultModelProvider es el proveedor usado hasta que el usuario elige otro.
const DefaultModelProvider = "gemini-2.0-flash"

// Settings es la configuracion de conversacion persistida entre sesiones.
type Settings struct {
	ModelProvider string `json:"modelProvider"`
	IsRag         bool   `json:"isRag"`
}

// Store persiste la configuracion en un archivo JSON con escritura directa
// en cada cambio.
type Store struct {
	mu      sync.Mutex
	path    string
	current Settings
}

// Load lee la configuracion del archivo dado. Si no existe, arranca con los
// valores por defecto sin crear el archivo todavia.
func Load(path string) (*Store, error) {
	s := &Store{
		path:    path,
		current: Settings{ModelProvider: DefaultModelProvider},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.current.ModelProvider == "" {
		s.current.ModelProvider = DefaultModelProvider
	}
	return s, nil
}

// Get devuelve la configuracion vigente.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetModelProvider cambia el proveedor y persiste.
func (s *Store) SetModelProvider(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if provider == "" {
		provider = DefaultModelProvider
	}
	s.current.ModelProvider = provider
	return s.writeLocked()
}

// SetIsRag activa o desactiva el modo RAG y persiste.
func (s *Store) SetIsRag(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IsRag = enabled
	return s.writeLocked()
}

func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
