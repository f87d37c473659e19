package repository

import (
	"context"

	"campuslink/internal/domain/entity"
)

type RoomFilter struct {
	Search string
	Limit  int
	Offset int
}

// RoomRepository is the durable room registry. Participant membership is
// indexed by user so ListByParticipant never scans unrelated rooms.
type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	ListByParticipant(ctx context.Context, userID string, filter RoomFilter) ([]*entity.Room, int64, error)
	// AddParticipant is a no-op when userID already participates.
	AddParticipant(ctx context.Context, roomID, userID string) error
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	ParticipantRoomIDs(ctx context.Context, userID string) ([]string, error)
}
