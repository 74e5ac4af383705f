package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/apperr"
	"github.com/septivank/rnsync-vitals/internal/auth"
	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/service"
)

// Client actions
const (
	ActionIngest       = "ingest"
	ActionJoinPatient  = "join-patient"
	ActionLeavePatient = "leave-patient"
)

const sendBufferSize = 256

// ClientMessage is the envelope of every inbound message. Ingest messages
// carry the reading fields alongside the action.
type ClientMessage struct {
	Action    string `json:"action"`
	PatientID string `json:"patientId"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// SnapshotSource supplies the readings sent when a viewer joins a patient
type SnapshotSource interface {
	LatestReadings(ctx context.Context, patientID string) ([]db.Reading, error)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authorized HTTP requests and routes channel messages.
type Handler struct {
	hub       *Hub
	auth      *auth.Service
	ingest    *service.IngestService
	snapshots SnapshotSource
	logger    *zap.Logger
}

// NewHandler creates a new handler bound to the given Hub.
func NewHandler(
	hub *Hub,
	authService *auth.Service,
	ingest *service.IngestService,
	snapshots SnapshotSource,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		hub:       hub,
		auth:      authService,
		ingest:    ingest,
		snapshots: snapshots,
		logger:    logger,
	}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect authorizes the connection token, upgrades the connection and
// starts the read and write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	req := c.Request()
	resource := req.Method + " " + req.URL.Path

	policy := h.auth.Authorize(req.Context(), connectionToken(c), resource)
	if !policy.Allowed() {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": (&apperr.AuthError{Reason: "connection denied"}).Error(),
		})
	}

	ws, err := upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		return err
	}

	h.Serve(&gorillaConnAdapter{ws}, policy.PrincipalID)
	return nil
}

// connectionToken reads the token query parameter, falling back to a bearer
// Authorization header for clients that can set headers on the upgrade.
func connectionToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Serve registers a connection with the hub and starts its pumps
func (h *Handler) Serve(conn Conn, principal string) *Client {
	client := &Client{
		ID:     uuid.New().String(),
		Topics: []string{},
		Send:   make(chan []byte, sendBufferSize),
	}
	h.hub.Register(client)

	logger := h.logger.With(zap.String("client_id", client.ID), zap.String("principal", principal))
	ctx, cancel := context.WithCancel(context.Background())

	h.send(client, h.ingest.Connect(ctx))
	logger.Info("realtime client connected")

	go h.writePump(client, conn)
	go func() {
		defer cancel()
		h.readPump(ctx, client, conn, logger)
	}()

	return client
}

// readPump reads messages from the connection and dispatches them.
func (h *Handler) readPump(ctx context.Context, client *Client, conn Conn, logger *zap.Logger) {
	defer func() {
		ack := h.ingest.Disconnect(ctx)
		logger.Info("realtime client disconnected", zap.String("ack", ack.Body))
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(ctx, client, message, logger)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, message []byte, logger *zap.Logger) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		h.send(client, service.ErrorAck(apperr.Validation("invalid message: %v", err)))
		return
	}

	switch msg.Action {
	case ActionIngest:
		ack, err := h.ingest.Ingest(ctx, message)
		if err != nil {
			logger.Warn("ingest failed", zap.Error(err))
			ack = service.ErrorAck(err)
		}
		h.send(client, ack)

	case ActionJoinPatient:
		if msg.PatientID == "" {
			h.send(client, service.ErrorAck(apperr.Validation("patientId is required")))
			return
		}
		h.hub.Subscribe(client, PatientTopic(msg.PatientID))
		logger.Info("client joined patient stream", zap.String("patient_id", msg.PatientID))
		h.sendSnapshot(ctx, client, msg.PatientID, logger)

	case ActionLeavePatient:
		if msg.PatientID == "" {
			h.send(client, service.ErrorAck(apperr.Validation("patientId is required")))
			return
		}
		h.hub.Unsubscribe(client, PatientTopic(msg.PatientID))
		logger.Info("client left patient stream", zap.String("patient_id", msg.PatientID))

	default:
		h.send(client, service.Ack{StatusCode: http.StatusBadRequest, Body: "Unknown route."})
	}
}

func (h *Handler) sendSnapshot(ctx context.Context, client *Client, patientID string, logger *zap.Logger) {
	readings, err := h.snapshots.LatestReadings(ctx, patientID)
	if err != nil {
		logger.Error("failed to fetch initial vitals", zap.Error(err), zap.String("patient_id", patientID))
		return
	}

	data, err := json.Marshal(readings)
	if err != nil {
		logger.Error("failed to marshal initial vitals", zap.Error(err))
		return
	}
	h.send(client, Event{
		Type:      EventInitialVitals,
		Topic:     PatientTopic(patientID),
		PatientID: patientID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

func (h *Handler) send(client *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal reply", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("dropping reply for slow client", zap.String("client_id", client.ID))
	}
}

// writePump writes messages from the Send channel to the connection.
func (h *Handler) writePump(client *Client, conn Conn) {
	defer conn.Close()

	for message := range client.Send {
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
