package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

// SetKeyRequest replaces the key held for a provider. An empty key removes
// the credential.
type SetKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SetKeyResponse echoes a masked preview, never the key itself.
type SetKeyResponse struct {
	Provider      string `json:"provider"`
	APIKeyPreview string `json:"api_key_preview"`
}

// ValidateKeyRequest asks whether a key is accepted by its provider.
type ValidateKeyRequest struct {
	Provider chat.ProviderKind `json:"provider"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
}

// ValidateKeyResponse reports the validation outcome.
type ValidateKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (s *Server) setKey(c echo.Context) error {
	kind := chat.ProviderKind(c.Param("provider"))

	var req SetKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
	}

	s.creds.Set(kind, req.APIKey)
	log.Info().
		Str("provider", string(kind)).
		Str("api_key_preview", credentials.Mask(req.APIKey)).
		Msg("Credential updated")

	return c.JSON(http.StatusOK, SetKeyResponse{
		Provider:      string(kind),
		APIKeyPreview: credentials.Mask(req.APIKey),
	})
}

// validateKey checks a key with a cheap real call through a throwaway
// adapter, so probe keys never land in the live credential store.
func (s *Server) validateKey(c echo.Context) error {
	var req ValidateKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ValidateKeyResponse{Valid: false, Message: "Invalid request body"})
	}
	if req.Provider == "" {
		return c.JSON(http.StatusBadRequest, ValidateKeyResponse{Valid: false, Message: "Provider is required"})
	}
	if req.APIKey == "" && req.Provider.RequiresKey() {
		return c.JSON(http.StatusBadRequest, ValidateKeyResponse{Valid: false, Message: "API key is required"})
	}

	log.Info().
		Str("provider", string(req.Provider)).
		Str("api_key_preview", credentials.Mask(req.APIKey)).
		Msg("Validating API key")

	probe := credentials.NewStore()
	probe.Set(req.Provider, req.APIKey)

	adapter, ok := s.newAdapter(req.Provider, probe)
	if !ok {
		return c.JSON(http.StatusBadRequest, ValidateKeyResponse{
			Valid:   false,
			Message: "Unsupported provider: " + string(req.Provider),
		})
	}

	participant := chat.Participant{
		ID:          string(req.Provider),
		DisplayName: string(req.Provider),
		Provider:    req.Provider,
		BaseURL:     req.BaseURL,
		Params:      chat.GenerationParams{MaxTokens: 10},
	}

	_, err := adapter.Send(c.Request().Context(), "test", participant, nil)
	if err == nil {
		return c.JSON(http.StatusOK, ValidateKeyResponse{Valid: true, Message: "API key is valid"})
	}

	if aerr, isAdapter := ai.AsAdapterError(err); isAdapter {
		switch aerr.Kind {
		case ai.ErrUnauthorized, ai.ErrMissingCredential:
			return c.JSON(http.StatusOK, ValidateKeyResponse{Valid: false, Message: "API key is invalid"})
		case ai.ErrRateLimited:
			// Throttled keys are usually valid keys that hit their quota.
			return c.JSON(http.StatusOK, ValidateKeyResponse{
				Valid:   false,
				Message: "Provider is rate limited; the key may be valid but over quota",
			})
		}
	}

	log.Error().Err(err).Str("provider", string(req.Provider)).Msg("Error validating API key")
	return c.JSON(http.StatusBadGateway, ValidateKeyResponse{
		Valid:   false,
		Message: "Error validating API key: " + err.Error(),
	})
}
