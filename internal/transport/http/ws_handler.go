package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizterios-service/internal/app"
	"quizterios-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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

type startPayload struct {
	Name string `json:"name"`
}

type selectPayload struct {
	Choice domain.ChoiceKey `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one game session for the connection.
// Clients send {type, payload} commands; every state change is pushed back as
// a "state" message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log := h.logger.With(zap.String("session", sessionID))
	h.service.Open(sessionID)
	defer h.service.Close(sessionID)

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ok := enqueue(send, writerDone, outboundMessage[any]{Type: "topics", Payload: domain.Topics})
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ok = enqueue(send, writerDone, h.handle(r.Context(), sessionID, inbound)...)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle runs one client command. State changes reach the client through the
// subscription, so only command-specific results and errors are returned.
func (h *WSHandler) handle(ctx context.Context, sessionID string, inbound inboundMessage) []outboundMessage[any] {
	var err error
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid start payload")
		}
		_, err = h.service.Start(ctx, sessionID, payload.Name)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid select payload")
		}
		_, err = h.service.Select(ctx, sessionID, payload.Choice)
	case "confirm":
		var result domain.AnswerResult
		result, _, err = h.service.Confirm(ctx, sessionID)
		if err == nil {
			return []outboundMessage[any]{{Type: "answerResult", Payload: result}}
		}
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "retry":
		_, err = h.service.Retry(ctx, sessionID)
	case "end":
		_, err = h.service.End(ctx, sessionID)
	case "leaderboard":
		var lb domain.Leaderboard
		_, lb, err = h.service.ShowLeaderboard(ctx, sessionID)
		if err == nil {
			return []outboundMessage[any]{{Type: "leaderboard", Payload: lb}}
		}
	case "reset":
		_, err = h.service.Reset(ctx, sessionID)
	default:
		return errorMessage("unsupported message type")
	}
	if err != nil {
		return errorMessage(err.Error())
	}
	return nil
}

// enqueue hands msgs to the writer goroutine. It reports false once the
// writer has stopped on a broken connection, so the caller never blocks on a
// full queue nobody drains.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msgs ...outboundMessage[any]) bool {
	for _, msg := range msgs {
		select {
		case send <- msg:
		case <-writerDone:
			return false
		}
	}
	return true
}

func errorMessage(msg string) []outboundMessage[any] {
	return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: msg}}}
}
