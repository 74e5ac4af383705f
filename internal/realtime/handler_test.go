package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/auth"
	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/repository"
	"github.com/septivank/rnsync-vitals/internal/service"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

const testSecret = "realtime-secret"

type testEnv struct {
	server *httptest.Server
	hub    *Hub
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	gateway := repository.NewMemoryGateway()
	require.NoError(t, gateway.Insert(context.Background(), db.TablePatients, db.Patient{
		ID: "p1", Name: "Jane", Bed: "ICU-2", CreatedAt: time.Now().UTC(),
	}.Row()))

	hub := NewHub(logger)
	patients := service.NewPatientService(gateway, hub, logger)
	ingest := service.NewIngestService(gateway, validator.NewValidator(nil), hub, logger)
	authService := auth.NewService(auth.NewJWTProvider(auth.JWTConfig{Secret: []byte(testSecret)}), logger)

	e := echo.New()
	NewHandler(hub, authService, ingest, patients, logger).RegisterRoutes(e.Group(""))
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sensor-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testEnv{server: server, hub: hub, token: signed}
}

func (e *testEnv) dial(t *testing.T, token string) (*gorillawebsocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return gorillawebsocket.DefaultDialer.Dial(url, nil)
}

func readJSON(t *testing.T, conn *gorillawebsocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := env.dial(t, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := env.dial(t, "forged")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_AcceptsBearerHeader(t *testing.T) {
	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"

	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + env.token}})
	require.NoError(t, err)
	defer conn.Close()

	var ack service.Ack
	readJSON(t, conn, &ack)
	assert.Equal(t, http.StatusOK, ack.StatusCode)
	assert.Equal(t, "Connected.", ack.Body)
}

func TestHandler_ConnectJoinAndIngest(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := env.dial(t, env.token)
	require.NoError(t, err)
	defer conn.Close()

	var ack service.Ack
	readJSON(t, conn, &ack)
	assert.Equal(t, service.Ack{StatusCode: 200, Body: "Connected."}, ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "join-patient", "patientId": "p1"}))
	var snapshot Event
	readJSON(t, conn, &snapshot)
	assert.Equal(t, EventInitialVitals, snapshot.Type)
	assert.Equal(t, "p1", snapshot.PatientID)
	assert.JSONEq(t, `[]`, string(snapshot.Data))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action": "ingest", "patientId": "p1", "metric": "spo2", "value": 97, "unit": "%",
	}))

	var update Event
	readJSON(t, conn, &update)
	assert.Equal(t, EventVitalUpdate, update.Type)
	var reading db.Reading
	require.NoError(t, json.Unmarshal(update.Data, &reading))
	assert.Equal(t, 97.0, reading.Value)

	readJSON(t, conn, &ack)
	assert.Equal(t, service.Ack{StatusCode: 200, Body: "Data saved for patient: p1"}, ack)
}

func TestHandler_UnknownActionAndErrors(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := env.dial(t, env.token)
	require.NoError(t, err)
	defer conn.Close()

	var ack service.Ack
	readJSON(t, conn, &ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "sendmessage"}))
	readJSON(t, conn, &ack)
	assert.Equal(t, service.Ack{StatusCode: 400, Body: "Unknown route."}, ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ingest", "patientId": "p1", "metric": "hr"}))
	readJSON(t, conn, &ack)
	assert.Equal(t, service.Ack{StatusCode: 400, Body: "value is required"}, ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ingest", "patientId": "nobody", "metric": "hr", "value": 1}))
	readJSON(t, conn, &ack)
	assert.Equal(t, service.Ack{StatusCode: 404, Body: "Patient not found"}, ack)

	require.NoError(t, conn.WriteMessage(gorillawebsocket.TextMessage, []byte("{not json")))
	readJSON(t, conn, &ack)
	assert.Equal(t, 400, ack.StatusCode)
}

func TestHandler_DisconnectUnregisters(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := env.dial(t, env.token)
	require.NoError(t, err)

	var ack service.Ack
	readJSON(t, conn, &ack)
	require.NoError(t, conn.WriteJSON(map[string]any{"action": "join-patient", "patientId": "p1"}))
	var snapshot Event
	readJSON(t, conn, &snapshot)
	require.Equal(t, 1, env.hub.TopicCount(PatientTopic("p1")))

	conn.Close()

	assert.Eventually(t, func() bool {
		return env.hub.ClientCount() == 0 && env.hub.TopicCount(PatientTopic("p1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
