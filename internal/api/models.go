package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aethernet/internal/chat"
)

// ProviderCatalog lists a provider's known models and its default.
type ProviderCatalog struct {
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}

// ModelsResponse is the catalog served to clients building a roster.
type ModelsResponse struct {
	Defaults  []chat.Participant         `json:"defaults"`
	Providers map[string]ProviderCatalog `json:"providers"`
}

// getModels returns the stock participant roster and the per-provider model
// catalogs for every provider the relay has an adapter for.
func (s *Server) getModels(c echo.Context) error {
	providers := make(map[string]ProviderCatalog)
	for _, kind := range s.registry.Kinds() {
		providers[string(kind)] = ProviderCatalog{
			Models:       chat.ProviderModels(kind),
			DefaultModel: chat.DefaultModel(kind),
		}
	}

	return c.JSON(http.StatusOK, ModelsResponse{
		Defaults:  chat.DefaultRoster(),
		Providers: providers,
	})
}
