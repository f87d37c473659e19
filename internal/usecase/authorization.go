package usecase

import (
	"context"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
)

// AuthorizationGate answers whether an identity currently participates in a
// room. It has no side effects and is consulted on connect and again before
// every inbound message, since membership can change mid-session.
type AuthorizationGate struct {
	roomRepo repository.RoomRepository
}

func NewAuthorizationGate(roomRepo repository.RoomRepository) *AuthorizationGate {
	return &AuthorizationGate{
		roomRepo: roomRepo,
	}
}

func (g *AuthorizationGate) IsParticipant(ctx context.Context, identity entity.Identity, roomID string) (bool, error) {
	if identity.IsAnonymous() {
		return false, nil
	}
	return g.roomRepo.IsParticipant(ctx, roomID, identity.ID)
}
