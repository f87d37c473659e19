package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	ws "campuslink/internal/infrastructure/websocket"
	"campuslink/pkg/errors"
)

type MessageUseCase struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	gate        *AuthorizationGate
	hub         *ws.Hub
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	gate *AuthorizationGate,
	hub *ws.Hub,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		gate:        gate,
		hub:         hub,
	}
}

type SendMessageInput struct {
	RoomID     string
	Content    string
	Attachment *string
}

type MessageResponse struct {
	*entity.Message
	SenderName string      `json:"sender_name"`
	SenderRole entity.Role `json:"sender_role"`
}

// SendMessage persists a message and pushes it to the room's live
// connections. The membership re-check, the append and the enqueue onto every
// connection happen inside the room's actor, so connections observe messages
// in append order. The append is not cancelled with ctx: once accepted, a
// message is either fully stored or not stored at all.
func (uc *MessageUseCase) SendMessage(ctx context.Context, sender entity.Identity, input SendMessageInput) (*entity.Message, error) {
	if sender.IsAnonymous() {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.Validation("message content is required")
	}

	message := &entity.Message{
		RoomID:     input.RoomID,
		SenderID:   sender.ID,
		Content:    input.Content,
		Attachment: nonEmpty(input.Attachment),
	}

	err := uc.hub.Dispatch(context.WithoutCancel(ctx), input.RoomID, func(ctx context.Context) ([]byte, error) {
		if err := uc.authorizeSend(ctx, sender, input.RoomID); err != nil {
			return nil, err
		}
		if err := uc.messageRepo.Append(ctx, message); err != nil {
			return nil, err
		}
		payload, _ := json.Marshal(NewOutboundFrame(message, sender))
		return payload, nil
	})
	if err != nil {
		if stderrors.Is(err, ws.ErrHubClosed) {
			return nil, errors.Unavailable("Chat is shutting down", err)
		}
		return nil, err
	}

	return message, nil
}

func (uc *MessageUseCase) authorizeSend(ctx context.Context, sender entity.Identity, roomID string) error {
	ok, err := uc.gate.IsParticipant(ctx, sender, roomID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := uc.roomRepo.GetByID(ctx, roomID); err != nil {
		return err
	}
	return errors.Forbidden("You are not a participant of this room", nil)
}

// History returns the room's messages with id greater than afterID, oldest first.
func (uc *MessageUseCase) History(ctx context.Context, caller entity.Identity, roomID string, afterID int64, limit int) ([]*MessageResponse, error) {
	ok, err := uc.gate.IsParticipant(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound("Room", nil)
	}

	messages, err := uc.messageRepo.ListByRoom(ctx, roomID, afterID, limit)
	if err != nil {
		return nil, err
	}
	return uc.withSenders(ctx, messages), nil
}

// MarkRead flips a message to read. Only participants other than the sender
// may do so; repeating it is a no-op.
func (uc *MessageUseCase) MarkRead(ctx context.Context, reader entity.Identity, messageID int64) (*MessageResponse, error) {
	if reader.IsAnonymous() {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	ok, err := uc.gate.IsParticipant(ctx, reader, message.RoomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("You are not a participant of this room", nil)
	}
	if message.SenderID == reader.ID {
		return nil, errors.Forbidden("You cannot mark your own message as read", nil)
	}

	if !message.IsRead {
		if err := uc.messageRepo.MarkRead(ctx, messageID); err != nil {
			return nil, err
		}
		message.IsRead = true
	}

	return uc.withSenders(ctx, []*entity.Message{message})[0], nil
}

// ListUnread returns unread messages from every room the identity is in,
// excluding its own messages, ordered by id.
func (uc *MessageUseCase) ListUnread(ctx context.Context, identity entity.Identity) ([]*MessageResponse, error) {
	if identity.IsAnonymous() {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	roomIDs, err := uc.roomRepo.ParticipantRoomIDs(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	messages, err := uc.messageRepo.ListUnread(ctx, roomIDs, identity.ID)
	if err != nil {
		return nil, err
	}
	return uc.withSenders(ctx, messages), nil
}

func (uc *MessageUseCase) withSenders(ctx context.Context, messages []*entity.Message) []*MessageResponse {
	senders := make(map[string]*entity.User)
	result := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		user, ok := senders[m.SenderID]
		if !ok {
			user, _ = uc.userRepo.GetByID(ctx, m.SenderID)
			senders[m.SenderID] = user
		}

		resp := &MessageResponse{Message: m}
		if user != nil {
			resp.SenderName = user.FullName
			resp.SenderRole = user.Role
		}
		result = append(result, resp)
	}
	return result
}
