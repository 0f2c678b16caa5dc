package domain

import "time"

// Resource es un documento fuente subido al workspace, ya troceado y
// embebido en el servidor.
type Resource struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	FileType  string    `json:"fileType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Embedding es un chunk individual de un recurso.
type Embedding struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ResourceDetail es un recurso junto con todos sus chunks.
type ResourceDetail struct {
	Resource
	Embeddings []Embedding `json:"embeddings"`
}

// CreateEmbeddingInput es el payload para crear un recurso desde texto extraido.
type CreateEmbeddingInput struct {
	Content       string `json:"content"`
	ResourceName  string `json:"resourceName,omitempty"`
	DocsLanguages string `json:"docsLanguages,omitempty"`
}
