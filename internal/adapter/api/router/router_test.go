package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslink/internal/adapter/api"
	"campuslink/internal/adapter/api/handler"
	"campuslink/internal/adapter/api/middleware"
	"campuslink/internal/adapter/repository"
	"campuslink/internal/domain/entity"
	"campuslink/internal/infrastructure/auth"
	"campuslink/internal/infrastructure/ratelimit"
	ws "campuslink/internal/infrastructure/websocket"
	"campuslink/internal/usecase"
	"campuslink/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testApp struct {
	srv *httptest.Server
	hub *ws.Hub
	jwt *auth.JWTManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := repository.NewGormUserRepository(db)
	rooms := repository.NewGormRoomRepository(db)
	messages := repository.NewGormMessageRepository(db)

	ctx := context.Background()
	for _, u := range []*entity.User{
		{ID: "alice", Email: "alice@campus.edu", FullName: "Alice", Role: entity.RoleStudent},
		{ID: "bob", Email: "bob@campus.edu", FullName: "Bob", Role: entity.RoleTechnician},
		{ID: "carol", Email: "carol@campus.edu", FullName: "Carol", Role: entity.RoleStudent},
	} {
		require.NoError(t, users.Create(ctx, u))
	}

	app := &testApp{
		hub: ws.NewHub(ws.DefaultOptions()),
		jwt: auth.NewJWTManager("router-test-secret", time.Hour),
	}

	gate := usecase.NewAuthorizationGate(rooms)
	userUseCase := usecase.NewUserUseCase(users, app.jwt)
	roomUseCase := usecase.NewRoomUseCase(rooms, users, gate)
	messageUseCase := usecase.NewMessageUseCase(messages, rooms, users, gate, app.hub)
	connections := usecase.NewConnectionUseCase(rooms, gate, messageUseCase, app.hub, ratelimit.NewRateLimiter(100, 100))

	handler.Setup(roomUseCase, messageUseCase)
	handler.SetupHealthHandler(app.hub)
	handler.SetupDevTokenHandler(userUseCase)

	e := echo.New()
	e.Validator = api.NewValidator()
	authMiddleware := middleware.NewAuthMiddleware(app.jwt, userUseCase)

	Setup(e, authMiddleware, nil)
	SetupWebSocketRouter(e, handler.NewWebSocketHandler(connections, time.Second), authMiddleware)
	SetupDevRouter(e, "development")

	app.srv = httptest.NewServer(e)
	t.Cleanup(app.srv.Close)
	t.Cleanup(app.hub.Shutdown)
	return app
}

func (a *testApp) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.jwt.Issue(userID)
	require.NoError(t, err)
	return token
}

func (a *testApp) call(t *testing.T, method, path, userID string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) createRoom(t *testing.T, creator string, participants ...string) string {
	t.Helper()
	status, env := a.call(t, http.MethodPost, "/v1/chat/rooms", creator, map[string]interface{}{
		"name":            "Repair #12",
		"participant_ids": participants,
		"room_type":       "repair",
	})
	require.Equal(t, http.StatusCreated, status)

	var room struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &room))
	require.NotEmpty(t, room.ID)
	return room.ID
}

func (a *testApp) dial(t *testing.T, roomID, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws/chat/" + roomID
	if userID != "" {
		url += "?token=" + a.token(t, userID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (a *testApp) waitForConnections(t *testing.T, roomID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return a.hub.Count(roomID) == n }, 2*time.Second, 10*time.Millisecond)
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func expectPolicyClose(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %q", data)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestChat_MessageReachesEveryParticipant(t *testing.T) {
	app := newTestApp(t)
	roomID := app.createRoom(t, "alice", "bob")

	aliceConn := app.dial(t, roomID, "alice")
	bobConn := app.dial(t, roomID, "bob")
	app.waitForConnections(t, roomID, 2)

	require.NoError(t, aliceConn.WriteJSON(map[string]string{"message": "When can I pick up my laptop?"}))

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		var frame usecase.OutboundFrame
		readJSON(t, conn, &frame)
		assert.Equal(t, int64(1), frame.MessageID)
		assert.Equal(t, "When can I pick up my laptop?", frame.Message)
		assert.Equal(t, "alice", frame.SenderID)
		assert.Equal(t, "Alice", frame.SenderName)
		assert.Equal(t, entity.RoleStudent, frame.SenderRole)
		assert.Nil(t, frame.Attachment)
		_, err := time.Parse(time.RFC3339Nano, frame.Timestamp)
		assert.NoError(t, err)
	}

	status, env := app.call(t, http.MethodGet, "/v1/chat/rooms/"+roomID+"/messages", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Alice", history[0]["sender_name"])
}

func TestChat_RejectedConnectionsAreClosedWithoutFrames(t *testing.T) {
	app := newTestApp(t)
	roomID := app.createRoom(t, "alice", "bob")

	expectPolicyClose(t, app.dial(t, roomID, "carol"))
	expectPolicyClose(t, app.dial(t, roomID, ""))
	expectPolicyClose(t, app.dial(t, "no-such-room", "alice"))

	assert.Equal(t, 0, app.hub.Count(roomID))
	assert.Equal(t, 0, app.hub.ActiveRooms())
}

func TestChat_InvalidFrameGetsErrorFrameOnlyOnSender(t *testing.T) {
	app := newTestApp(t)
	roomID := app.createRoom(t, "alice", "bob")

	aliceConn := app.dial(t, roomID, "alice")
	bobConn := app.dial(t, roomID, "bob")
	app.waitForConnections(t, roomID, 2)

	require.NoError(t, aliceConn.WriteJSON(map[string]string{"message": "   "}))

	var frame usecase.ErrorFrame
	readJSON(t, aliceConn, &frame)
	assert.Equal(t, "error", frame.Type)
	assert.Equal(t, errors.CodeValidation, frame.Error.Code)

	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte("not json")))
	readJSON(t, aliceConn, &frame)
	assert.Equal(t, errors.CodeBadRequest, frame.Error.Code)

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := bobConn.ReadMessage()
	assert.Error(t, err, "unexpected frame %q", data)

	// The connection survives a rejected frame.
	assert.Equal(t, 2, app.hub.Count(roomID))
}

func TestChat_RESTFlow(t *testing.T) {
	app := newTestApp(t)
	roomID := app.createRoom(t, "alice", "bob")

	status, env := app.call(t, http.MethodGet, "/v1/chat/rooms", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), roomID)

	status, env = app.call(t, http.MethodGet, "/v1/chat/rooms/"+roomID, "carol", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errors.CodeNotFound, env.Error.Code)

	status, env = app.call(t, http.MethodPost, "/v1/chat/rooms/"+roomID+"/messages", "alice", map[string]string{"message": "Fixed yet?"})
	require.Equal(t, http.StatusCreated, status)
	var sent struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))

	status, _ = app.call(t, http.MethodPost, "/v1/chat/rooms/"+roomID+"/messages", "carol", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = app.call(t, http.MethodGet, "/v1/chat/messages/unread", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	var unread []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.Len(t, unread, 1)
	assert.EqualValues(t, sent.ID, unread[0]["id"])

	status, _ = app.call(t, http.MethodPost, "/v1/chat/messages/abc/read", "bob", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = app.call(t, http.MethodPost, "/v1/chat/messages/"+strconv.FormatInt(sent.ID, 10)+"/read", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"is_read":true`)

	status, env = app.call(t, http.MethodGet, "/v1/chat/messages/unread", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, _ = app.call(t, http.MethodGet, "/v1/chat/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDevAndHealthRoutes(t *testing.T) {
	app := newTestApp(t)

	status, env := app.call(t, http.MethodGet, "/_dev/token/alice", "", nil)
	require.Equal(t, http.StatusOK, status)
	var issued usecase.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	uid, err := app.jwt.Verify(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	status, _ = app.call(t, http.MethodPost, "/_dev/users", "", map[string]string{
		"email":     "dave@campus.edu",
		"full_name": "Dave",
		"role":      "janitor",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Get(app.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
