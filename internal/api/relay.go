package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
)

// RelayRequest is the payload every per-provider endpoint accepts.
type RelayRequest struct {
	Message string    `json:"message"`
	Context []ai.Turn `json:"context"`
	Model   string    `json:"model,omitempty"`
}

// RelayResponse is the success envelope: the normalized response text.
type RelayResponse struct {
	Content string `json:"content"`
}

// RelayError is the failure envelope. Details carries the provider's raw
// response body when one was received.
type RelayError struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// relayHandler performs the request-build / auth / invoke / normalize steps
// for one provider using server-held credentials, so keys never reach the
// browser. The response status mirrors the upstream provider's status, or
// 500 on transport failure.
func (s *Server) relayHandler(kind chat.ProviderKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req RelayRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
		}
		if req.Message == "" {
			return c.JSON(http.StatusBadRequest, RelayError{Error: "message is required"})
		}

		adapter, err := s.registry.Get(kind)
		if err != nil {
			return c.JSON(http.StatusNotFound, RelayError{Error: fmt.Sprintf("provider %s is not available", kind)})
		}

		participant := chat.Participant{
			ID:          string(kind),
			DisplayName: string(kind),
			Provider:    kind,
			Model:       req.Model,
		}

		content, err := adapter.Send(c.Request().Context(), req.Message, participant, req.Context)
		if err != nil {
			return s.relayError(c, kind, err)
		}

		return c.JSON(http.StatusOK, RelayResponse{Content: content})
	}
}

// relayError renders an adapter failure as a structured JSON error with a
// status mirroring the upstream provider where possible.
func (s *Server) relayError(c echo.Context, kind chat.ProviderKind, err error) error {
	aerr, ok := ai.AsAdapterError(err)
	if !ok {
		log.Error().Err(err).Str("provider", string(kind)).Msg("Relay call failed")
		return c.JSON(http.StatusInternalServerError, RelayError{
			Error:   fmt.Sprintf("%s API error", kind),
			Details: err.Error(),
		})
	}

	log.Warn().
		Str("provider", string(kind)).
		Str("kind", string(aerr.Kind)).
		Int("upstream_status", aerr.Status).
		Msg("Relay call failed")

	return c.JSON(aerr.HTTPStatus(), RelayError{
		Error:   fmt.Sprintf("%s API error", kind),
		Details: errorDetails(aerr),
	})
}

// errorDetails prefers the provider's own JSON error body; otherwise the
// adapter's message.
func errorDetails(aerr *ai.AdapterError) interface{} {
	if aerr.Body != "" {
		var decoded interface{}
		if err := json.Unmarshal([]byte(aerr.Body), &decoded); err == nil {
			return decoded
		}
		return aerr.Body
	}
	return aerr.Message
}
