package domain

// SuccessResponse es el envelope que devuelve el backend en operaciones exitosas.
type SuccessResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ErrorResponse es el envelope de error del backend.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination es la pagina de resultados compartida por conversaciones,
// recursos y busqueda. El cursor solo avanza; HasNext en false implica
// NextCursor en nil.
type Pagination[T any] struct {
	Items         []T     `json:"items"`
	NextCursor    *string `json:"nextCursor"`
	TotalElements int     `json:"totalElements"`
	HasNext       bool    `json:"hasNext"`
}
