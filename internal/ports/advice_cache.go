package ports

import (
	"context"
	"time"
)

// AdviceCache guarda consejos ya generados, indexados por hash del contenido
// del análisis. Solo texto derivado: nunca filas del trader.
type AdviceCache interface {
	// Get devuelve los tips cacheados; ok=false si no hay entrada o expiró.
	Get(ctx context.Context, key string) (tips []string, ok bool, err error)

	// Set guarda los tips con el TTL dado.
	Set(ctx context.Context, key string, tips []string, ttl time.Duration) error

	// Close cierra la conexión limpiamente.
	Close() error
}
