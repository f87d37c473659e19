package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslink/internal/domain/entity"
	ws "campuslink/internal/infrastructure/websocket"
	"campuslink/pkg/errors"
)

func TestConnectionUseCase_OpenRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.repairRoom(t)

	_, err := f.connections.Open(ctx, entity.Anonymous, room.ID, nil)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = f.connections.Open(ctx, alice, "missing", nil)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.connections.Open(ctx, carol, room.ID, nil)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	assert.Zero(t, f.hub.Count(room.ID))
	assert.Zero(t, f.hub.ActiveRooms())
}

func TestConnectionUseCase_OpenAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.repairRoom(t)

	first, err := f.connections.Open(ctx, alice, room.ID, nil)
	require.NoError(t, err)
	second, err := f.connections.Open(ctx, alice, room.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, ws.StateOpen, first.State())
	assert.Equal(t, 2, f.hub.Count(room.ID))
	assert.NotEqual(t, first.ID, second.ID)

	f.connections.Close(first)
	f.connections.Close(first)
	assert.Equal(t, ws.StateClosed, first.State())
	assert.Equal(t, 1, f.hub.Count(room.ID))

	f.connections.Close(second)
	assert.Zero(t, f.hub.ActiveRooms())
}

func TestConnectionUseCase_HandleFramePersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.repairRoom(t)

	client, err := f.connections.Open(ctx, alice, room.ID, nil)
	require.NoError(t, err)
	defer f.connections.Close(client)

	f.connections.HandleFrame(ctx, client, []byte(`{"message":"when will it be fixed","attachment":null}`))
	f.connections.HandleFrame(ctx, client, []byte(`{"message":""}`))
	f.connections.HandleFrame(ctx, client, []byte(`not json`))

	history, err := f.messageUC.History(ctx, alice, room.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "when will it be fixed", history[0].Content)
}

func TestNewOutboundFrame(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.FixedZone("WIB", 7*3600))
	photo := "https://example.com/p.jpg"
	frame := NewOutboundFrame(&entity.Message{
		ID:         7,
		RoomID:     "room",
		SenderID:   "alice",
		Content:    "hi",
		Attachment: &photo,
		Timestamp:  ts,
	}, alice)

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"message_id": 7,
		"message": "hi",
		"sender_id": "alice",
		"sender_name": "Alice",
		"sender_role": "student",
		"attachment": "https://example.com/p.jpg",
		"timestamp": "2024-05-01T01:30:00.123456789Z"
	}`, string(data))
}

func TestEncodeErrorFrame(t *testing.T) {
	assert.JSONEq(t,
		`{"type":"error","error":{"code":"FORBIDDEN","message":"nope"}}`,
		string(encodeErrorFrame(errors.Forbidden("nope", nil))))
}
