package ports

import (
	"context"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Advisor genera consejos en texto a partir de un análisis terminado.
// Un error nunca invalida el análisis: el servicio degrada a una lista vacía.
type Advisor interface {
	Advise(ctx context.Context, result domain.AnalysisResult) ([]string, error)
}
