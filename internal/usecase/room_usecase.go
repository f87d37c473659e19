package usecase

import (
	"context"
	"fmt"
	"strings"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/pkg/errors"
	"campuslink/pkg/logger"
)

type RoomUseCase struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	gate     *AuthorizationGate
}

func NewRoomUseCase(roomRepo repository.RoomRepository, userRepo repository.UserRepository, gate *AuthorizationGate) *RoomUseCase {
	return &RoomUseCase{
		roomRepo: roomRepo,
		userRepo: userRepo,
		gate:     gate,
	}
}

type CreateRoomInput struct {
	Name               string
	ParticipantIDs     []string
	RoomType           entity.RoomType
	RepairRequestID    *string
	AcademicQuestionID *string
}

type ParticipantResponse struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     entity.Role `json:"role"`
}

type RoomResponse struct {
	*entity.Room
	ParticipantDetails []ParticipantResponse `json:"participants"`
}

// CreateRoom always includes the creator among the participants; the
// resulting set must hold at least two distinct known users.
func (uc *RoomUseCase) CreateRoom(ctx context.Context, creator entity.Identity, input CreateRoomInput) (*RoomResponse, error) {
	if creator.IsAnonymous() {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("room name is required")
	}

	roomType := input.RoomType
	if roomType == "" {
		roomType = entity.RoomTypeGeneral
	}
	if !roomType.Valid() {
		return nil, errors.Validation(fmt.Sprintf("invalid room type %q", roomType))
	}

	repairID := nonEmpty(input.RepairRequestID)
	questionID := nonEmpty(input.AcademicQuestionID)
	if repairID != nil && questionID != nil {
		return nil, errors.Validation("a room can link to a repair request or an academic question, not both")
	}

	participantIDs := mergeParticipants(input.ParticipantIDs, creator.ID)
	if len(participantIDs) < entity.MinParticipants {
		return nil, errors.Validation(fmt.Sprintf("a room needs at least %d participants", entity.MinParticipants))
	}

	users := make([]*entity.User, 0, len(participantIDs))
	for _, id := range participantIDs {
		user, err := uc.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return nil, errors.Validation(fmt.Sprintf("unknown participant %q", id))
			}
			return nil, err
		}
		users = append(users, user)
	}

	room := &entity.Room{
		Name:               name,
		RoomType:           roomType,
		Participants:       participantIDs,
		RepairRequestID:    repairID,
		AcademicQuestionID: questionID,
	}
	if err := uc.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	logger.Info("Room %s created by %s with %d participants", room.ID, creator.ID, len(participantIDs))
	return &RoomResponse{Room: room, ParticipantDetails: toParticipants(users)}, nil
}

// AddParticipant is idempotent. Callers outside the room get NotFound so the
// room's existence is not revealed.
func (uc *RoomUseCase) AddParticipant(ctx context.Context, caller entity.Identity, roomID, userID string) (*RoomResponse, error) {
	if err := uc.requireParticipant(ctx, caller, roomID); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := uc.roomRepo.AddParticipant(ctx, roomID, userID); err != nil {
		return nil, err
	}

	return uc.GetRoom(ctx, caller, roomID)
}

func (uc *RoomUseCase) GetRoom(ctx context.Context, caller entity.Identity, roomID string) (*RoomResponse, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(caller.ID) {
		return nil, errors.NotFound("Room", nil)
	}
	return uc.withParticipants(ctx, room), nil
}

func (uc *RoomUseCase) ListRooms(ctx context.Context, caller entity.Identity, search string, limit, offset int) ([]*RoomResponse, int64, error) {
	if caller.IsAnonymous() {
		return nil, 0, errors.Unauthorized("Authentication required", nil)
	}

	rooms, total, err := uc.roomRepo.ListByParticipant(ctx, caller.ID, repository.RoomFilter{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}

	result := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, uc.withParticipants(ctx, room))
	}
	return result, total, nil
}

func (uc *RoomUseCase) requireParticipant(ctx context.Context, caller entity.Identity, roomID string) error {
	if caller.IsAnonymous() {
		return errors.Unauthorized("Authentication required", nil)
	}
	ok, err := uc.gate.IsParticipant(ctx, caller, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound("Room", nil)
	}
	return nil
}

func (uc *RoomUseCase) withParticipants(ctx context.Context, room *entity.Room) *RoomResponse {
	users := make([]*entity.User, 0, len(room.Participants))
	for _, id := range room.Participants {
		user, err := uc.userRepo.GetByID(ctx, id)
		if err != nil {
			logger.Warn("Room %s: cannot load participant %s: %v", room.ID, id, err)
			continue
		}
		users = append(users, user)
	}
	return &RoomResponse{Room: room, ParticipantDetails: toParticipants(users)}
}

func toParticipants(users []*entity.User) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ParticipantResponse{
			ID:       u.ID,
			Email:    u.Email,
			FullName: u.FullName,
			Role:     u.Role,
		})
	}
	return out
}

// mergeParticipants dedupes ids, drops blanks and appends creatorID when missing.
func mergeParticipants(ids []string, creatorID string) []string {
	seen := make(map[string]bool, len(ids)+1)
	out := make([]string, 0, len(ids)+1)
	for _, id := range append(append([]string{}, ids...), creatorID) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
