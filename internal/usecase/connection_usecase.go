package usecase

import (
	"context"
	"encoding/json"

	gorillaws "github.com/gorilla/websocket"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/internal/infrastructure/ratelimit"
	ws "campuslink/internal/infrastructure/websocket"
	"campuslink/pkg/errors"
	"campuslink/pkg/logger"
)

// ConnectionUseCase admits live connections to rooms and turns their inbound
// frames into messages.
type ConnectionUseCase struct {
	roomRepo repository.RoomRepository
	gate     *AuthorizationGate
	messages *MessageUseCase
	hub      *ws.Hub
	limiter  *ratelimit.RateLimiter
}

func NewConnectionUseCase(
	roomRepo repository.RoomRepository,
	gate *AuthorizationGate,
	messages *MessageUseCase,
	hub *ws.Hub,
	limiter *ratelimit.RateLimiter,
) *ConnectionUseCase {
	return &ConnectionUseCase{
		roomRepo: roomRepo,
		gate:     gate,
		messages: messages,
		hub:      hub,
		limiter:  limiter,
	}
}

// Open admits conn to roomID's live set. It fails with Unauthorized for an
// anonymous identity, NotFound for a missing room and Forbidden for a
// non-participant; callers must close the transport the same way in all
// three cases.
func (uc *ConnectionUseCase) Open(ctx context.Context, identity entity.Identity, roomID string, conn *gorillaws.Conn) (*ws.Client, error) {
	if identity.IsAnonymous() {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if _, err := uc.roomRepo.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	ok, err := uc.gate.IsParticipant(ctx, identity, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("Not a participant of this room", nil)
	}

	client := uc.hub.NewClient(conn, roomID, identity)
	if err := uc.hub.Register(client); err != nil {
		return nil, errors.Unavailable("Chat is shutting down", err)
	}

	logger.Info("User %s connected to room %s (client %s)", identity.ID, roomID, client.ID)
	return client, nil
}

// Close removes the client from its room. Safe to call more than once.
func (uc *ConnectionUseCase) Close(client *ws.Client) {
	wasOpen := client.State() == ws.StateOpen
	uc.hub.Unregister(client)
	if wasOpen {
		logger.Info("User %s disconnected from room %s (client %s)", client.Identity.ID, client.RoomID, client.ID)
	}
}

// HandleFrame processes one inbound frame. Rejections are reported to the
// originating connection only, as an error frame.
func (uc *ConnectionUseCase) HandleFrame(ctx context.Context, client *ws.Client, data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		uc.reject(client, errors.BadRequest("Invalid frame format", err))
		return
	}

	if uc.limiter != nil {
		if allowed, wait := uc.limiter.Allow(client.Identity.ID); !allowed {
			logger.Debug("User %s rate limited in room %s, retry in %v", client.Identity.ID, client.RoomID, wait)
			uc.reject(client, errors.TooManyRequests("Too many messages, slow down"))
			return
		}
	}

	_, err := uc.messages.SendMessage(ctx, client.Identity, SendMessageInput{
		RoomID:     client.RoomID,
		Content:    frame.Message,
		Attachment: frame.Attachment,
	})
	if err != nil {
		uc.reject(client, err)
	}
}

func (uc *ConnectionUseCase) reject(client *ws.Client, err error) {
	appErr := errors.As(err)
	if appErr.Status >= 500 {
		logger.Error("Inbound frame from %s in room %s failed: %v", client.Identity.ID, client.RoomID, err)
	}
	uc.hub.Direct(client, encodeErrorFrame(appErr))
}
