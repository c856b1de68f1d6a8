package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aethernet/internal/chat"
)

// CreateChatRequest starts a conversation; the initial roster must be
// non-empty.
type CreateChatRequest struct {
	Name         string             `json:"name"`
	Participants []chat.Participant `json:"participants"`
}

// RenameChatRequest updates a conversation's name.
type RenameChatRequest struct {
	Name string `json:"name"`
}

// PostMessageRequest delivers one user message to a conversation.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse returns the messages appended by the turn: the user
// message first, then one response per targeted participant.
type PostMessageResponse struct {
	Messages []chat.Message `json:"messages"`
}

func (s *Server) createChat(c echo.Context) error {
	var req CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "name is required"})
	}

	conv, err := s.store.Create(req.Name, req.Participants)
	if err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, conv)
}

func (s *Server) listChats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) getChat(c echo.Context) error {
	conv, err := s.store.Get(c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) renameChat(c echo.Context) error {
	var req RenameChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "name is required"})
	}
	if err := s.store.Rename(c.Param("id"), req.Name); err != nil {
		return chatError(c, err)
	}
	conv, err := s.store.Get(c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteChat(c echo.Context) error {
	if err := s.store.Delete(c.Param("id")); err != nil {
		return chatError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) addParticipant(c echo.Context) error {
	var p chat.Participant
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
	}
	if p.ID == "" || p.Provider == "" {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "participant id and provider are required"})
	}
	if err := s.store.AddParticipant(c.Param("id"), p); err != nil {
		return chatError(c, err)
	}
	conv, err := s.store.Get(c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) removeParticipant(c echo.Context) error {
	if err := s.store.RemoveParticipant(c.Param("id"), c.Param("pid")); err != nil {
		return chatError(c, err)
	}
	conv, err := s.store.Get(c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, conv)
}

// postMessage runs a full dispatch turn. The handler blocks until every
// targeted participant has resolved (success or error); each adapter call
// carries its own timeout, so the turn cannot hang.
func (s *Server) postMessage(c echo.Context) error {
	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "Invalid request body"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, RelayError{Error: "content is required"})
	}

	messages, err := s.dispatcher.DispatchTurn(c.Request().Context(), c.Param("id"), req.Content)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, PostMessageResponse{Messages: messages})
}

func chatError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrConversationNotFound), errors.Is(err, chat.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyRoster):
		status = http.StatusBadRequest
	}
	return c.JSON(status, RelayError{Error: err.Error()})
}
