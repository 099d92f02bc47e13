package gemini

import (
	"log"
	"os"
	"time"
)

const (
	// EnvDocforgeMode is the environment variable name for mode selection.
	EnvDocforgeMode = "DOCFORGE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewStreamClient creates a gateway client based on the DOCFORGE_MODE
// environment variable. If DOCFORGE_MODE=MOCK, returns a MockClient that
// streams canned documents; otherwise returns a real Client.
func NewStreamClient(baseURL, apiKey, model string, timeout time.Duration) StreamClient {
	mode := os.Getenv(EnvDocforgeMode)

	if mode == ModeMock {
		log.Println("DOCFORGE_MODE=MOCK detected, using mock Gemini client")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, model, timeout)
}
