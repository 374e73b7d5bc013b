package ports

import "context"

// Speaker convierte texto en audio (audio/mpeg).
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}
