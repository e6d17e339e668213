package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/services"
)

type sendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" validate:"required"`
	Body       string    `json:"message" validate:"required,max=4000"`
	IsImage    bool      `json:"is_image"`
}

// SendMessage persists a chat message and fans it out to live streams.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.chatService.Send(r.Context(), services.SendMessageInput{
		SenderID:   claims.UserID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		IsImage:    req.IsImage,
		FromAdmin:  claims.Role == models.RoleAdmin,
	})
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to send chat message", "error", err)
		respondError(w, http.StatusBadRequest, "failed to send message")
		return
	}

	respondJSON(w, http.StatusCreated, "sent", msg)
}

// ChatHistory returns the caller's conversation with the given participant,
// oldest first. This is the consistency path; the SSE stream is best-effort.
func (h *Handlers) ChatHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	otherID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.chatService.History(r.Context(), claims.UserID, otherID)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to load chat history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	respondJSON(w, http.StatusOK, "ok", history)
}

// ChatStream pushes live messages for the caller's conversation as
// server-sent events until the client disconnects. Messages published while
// the client is away are not replayed; the history endpoint covers gaps.
func (h *Handlers) ChatStream(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	otherID, err := uuid.Parse(r.URL.Query().Get("with"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "query parameter 'with' must be a user id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream, cancel, err := h.chatService.Stream(r.Context(), claims.UserID, otherID)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to subscribe to chat stream", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to open stream")
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-stream:
			if !open {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				h.loggerFromContext(r.Context()).Warn("failed to encode streamed message", "error", err, "message_id", msg.ID)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
