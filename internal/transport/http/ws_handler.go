package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"daily-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler plays the quiz over a websocket. It is request/response only: every
// inbound message gets exactly one reply and nothing is pushed unprompted.
type WSHandler struct {
	api      *Handler
	upgrader websocket.Upgrader
}

func NewWSHandler(api *Handler) *WSHandler {
	return &WSHandler{
		api: api,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and serves "next" and "answer" messages for the caller.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.api.caller(r)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.api.Logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.api.Logger.With(zap.String("user_id", user.ID))
	log.Debug("ws connected")

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply := h.handle(r, user.ID, inbound)
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("ws write error", zap.Error(err))
			break
		}
	}
	log.Debug("ws disconnected")
}

func (h *WSHandler) handle(r *http.Request, userID string, inbound inboundMessage) outboundMessage {
	ctx := r.Context()
	switch inbound.Type {
	case "next":
		step, err := h.api.showNext(ctx, userID)
		if err != nil {
			return h.errorReply(r, err)
		}
		switch step.Status {
		case "question":
			return outboundMessage{Type: "question", Payload: step.Question}
		case "complete":
			return outboundMessage{Type: "complete", Payload: step.Results}
		default:
			return outboundMessage{Type: "no_quiz"}
		}
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
		}
		outcome, err := h.api.submit(ctx, userID, payload.ChoiceID)
		if err != nil {
			return h.errorReply(r, err)
		}
		return outboundMessage{Type: "answered", Payload: outcome}
	default:
		return outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

func (h *WSHandler) errorReply(r *http.Request, err error) outboundMessage {
	msg := err.Error()
	var known bool
	for _, sentinel := range []error{domain.ErrOutsideQuizWindow, domain.ErrNothingShown, domain.ErrInvalidChoice} {
		known = known || errors.Is(err, sentinel)
	}
	if !known {
		h.api.Logger.Error("ws request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}
