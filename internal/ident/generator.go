package ident

import (
	"crypto/rand"
	"fmt"
)

// Generator produce identificadores para mensajes creados en el cliente.
// Se inyecta como dependencia para poder usar secuencias deterministas en tests.
type Generator interface {
	New() string
}

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type prefixed struct {
	prefix string
	size   int
}

// NewPrefixed construye un generador de ids con prefijo y sufijo aleatorio
// de largo fijo, unico en la practica dentro de una sesion.
func NewPrefixed(prefix string, size int) Generator {
	if size <= 0 {
		size = 16
	}
	return &prefixed{prefix: prefix, size: size}
}

// NewMessageIDs devuelve el generador usado para turnos de usuario: "msg"
// mas 16 caracteres aleatorios.
func NewMessageIDs() Generator {
	return NewPrefixed("msg", 16)
}

func (g *prefixed) New() string {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand no falla en plataformas soportadas; si llegara a
		// fallar preferimos un panic temprano a ids repetidos.
		panic(fmt.Sprintf("ident: rand read: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return g.prefix + "-" + string(buf)
}
