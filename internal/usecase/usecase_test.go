package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"campuslink/internal/adapter/repository"
	"campuslink/internal/domain/entity"
	domainrepo "campuslink/internal/domain/repository"
	"campuslink/internal/infrastructure/ratelimit"
	ws "campuslink/internal/infrastructure/websocket"
)

var (
	alice = entity.Identity{ID: "alice", DisplayName: "Alice", Role: entity.RoleStudent}
	bob   = entity.Identity{ID: "bob", DisplayName: "Bob", Role: entity.RoleTechnician}
	carol = entity.Identity{ID: "carol", DisplayName: "Carol", Role: entity.RoleStudent}
)

type fixture struct {
	users    domainrepo.UserRepository
	rooms    domainrepo.RoomRepository
	messages domainrepo.MessageRepository

	hub         *ws.Hub
	gate        *AuthorizationGate
	roomUC      *RoomUseCase
	messageUC   *MessageUseCase
	connections *ConnectionUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		users:    repository.NewGormUserRepository(db),
		rooms:    repository.NewGormRoomRepository(db),
		messages: repository.NewGormMessageRepository(db),
		hub:      ws.NewHub(ws.DefaultOptions()),
	}
	t.Cleanup(f.hub.Shutdown)

	f.gate = NewAuthorizationGate(f.rooms)
	f.roomUC = NewRoomUseCase(f.rooms, f.users, f.gate)
	f.messageUC = NewMessageUseCase(f.messages, f.rooms, f.users, f.gate, f.hub)
	f.connections = NewConnectionUseCase(f.rooms, f.gate, f.messageUC, f.hub, ratelimit.NewRateLimiter(100, 100))

	ctx := context.Background()
	for _, id := range []entity.Identity{alice, bob, carol} {
		require.NoError(t, f.users.Create(ctx, &entity.User{
			ID:       id.ID,
			Email:    id.ID + "@campus.edu",
			FullName: id.DisplayName,
			Role:     id.Role,
		}))
	}
	return f
}

// repairRoom creates "Repair #12" for Alice and Bob, with Alice as creator.
func (f *fixture) repairRoom(t *testing.T) *RoomResponse {
	t.Helper()
	room, err := f.roomUC.CreateRoom(context.Background(), alice, CreateRoomInput{
		Name:           "Repair #12",
		ParticipantIDs: []string{"bob"},
		RoomType:       entity.RoomTypeRepair,
	})
	require.NoError(t, err)
	return room
}
