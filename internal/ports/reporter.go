package ports

import (
	"context"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Reporter presenta un análisis al usuario.
type Reporter interface {
	// Report muestra el resultado y los tips.
	// En la implementación de consola, imprime tablas formateadas.
	Report(ctx context.Context, result domain.AnalysisResult, advice []string) error
}
