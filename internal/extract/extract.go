package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExtractedText es el resultado de extraer texto de un archivo: el contenido
// listo para embeber y el nombre del recurso resultante.
type ExtractedText struct {
	Content      string
	ResourceName string
}

// ErrUnsupportedFileType se devuelve ante extensiones que este cliente no
// procesa. El PDF requiere un servicio de extraccion aparte y aqui se
// rechaza al seleccionar el archivo.
var ErrUnsupportedFileType = errors.New("extract: unsupported file type")

// FromFile extrae el texto de un archivo ya leido en memoria. Soporta texto
// plano y markdown; un archivo vacio produce contenido vacio, no un error.
func FromFile(name, mediaType string, data []byte) (ExtractedText, error) {
	switch {
	case isPlainText(name, mediaType), isMarkdown(name, mediaType):
		return ExtractedText{
			Content:      strings.TrimSpace(string(data)),
			ResourceName: name,
		}, nil
	default:
		return ExtractedText{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, name)
	}
}

// FromPath lee el archivo del disco y extrae su texto.
func FromPath(path string) (ExtractedText, error) {
	name := filepath.Base(path)
	if !isPlainText(name, "") && !isMarkdown(name, "") {
		return ExtractedText{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractedText{}, fmt.Errorf("read file: %w", err)
	}
	return FromFile(name, "", data)
}

func isPlainText(name, mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/plain") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), ".txt")
}

func isMarkdown(name, mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/markdown") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
