package workspace

import (
	"context"

	"go.uber.org/zap"

	"rag-chat-cli/internal/domain"
	"rag-chat-cli/internal/extract"
)

// EmbeddingCreator es la porcion del cliente de API que necesita el uploader.
type EmbeddingCreator interface {
	CreateEmbedding(ctx context.Context, input domain.CreateEmbeddingInput) error
}

// FileError asocia un archivo fallido con su causa.
type FileError struct {
	Filename string
	Err      error
}

// UploadResult resume un lote: cuantos archivos se procesaron bien y los
// errores individuales del resto.
type UploadResult struct {
	SuccessCount int
	Errors       []FileError
}

// Uploader procesa lotes de archivos del workspace: extrae el texto de cada
// uno y crea su embedding. Un archivo fallido no aborta el resto del lote.
type Uploader struct {
	api    EmbeddingCreator
	logger *zap.Logger
}

// NewUploader construye un uploader.
func NewUploader(api EmbeddingCreator, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{api: api, logger: logger}
}

// UploadFiles extrae y embebe cada archivo del lote en orden.
func (u *Uploader) UploadFiles(ctx context.Context, files []domain.FileAttachment) UploadResult {
	var result UploadResult
	for _, file := range files {
		extracted, err := extract.FromFile(file.Filename, file.MediaType, file.Data)
		if err == nil {
			err = u.api.CreateEmbedding(ctx, domain.CreateEmbeddingInput{
				Content:      extracted.Content,
				ResourceName: extracted.ResourceName,
			})
		}
		if err != nil {
			u.logger.Warn("file upload failed",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, FileError{Filename: file.Filename, Err: err})
			continue
		}
		result.SuccessCount++
	}
	return result
}

// UploadPaths lee cada ruta del disco y la procesa como UploadFiles.
func (u *Uploader) UploadPaths(ctx context.Context, paths []string) UploadResult {
	var result UploadResult
	for _, path := range paths {
		extracted, err := extract.FromPath(path)
		if err == nil {
			err = u.api.CreateEmbedding(ctx, domain.CreateEmbeddingInput{
				Content:      extracted.Content,
				ResourceName: extracted.ResourceName,
			})
		}
		if err != nil {
			u.logger.Warn("file upload failed",
				zap.String("path", path),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, FileError{Filename: path, Err: err})
			continue
		}
		result.SuccessCount++
	}
	return result
}
