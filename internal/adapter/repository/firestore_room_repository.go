package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/pkg/errors"
)

type firestoreRoomRepository struct {
	client *firestore.Client
}

// NewFirestoreRoomRepository stores rooms in the "rooms" collection. The
// participants array is queried with array-contains, which Firestore indexes
// automatically.
func NewFirestoreRoomRepository(client *firestore.Client) repository.RoomRepository {
	return &firestoreRoomRepository{
		client: client,
	}
}

func (r *firestoreRoomRepository) Create(ctx context.Context, room *entity.Room) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.CreatedAt = time.Now().UTC()

	_, err := r.client.Collection("rooms").Doc(room.ID).Create(ctx, room)
	if err != nil {
		return errors.Internal("Failed to create room", err)
	}
	return nil
}

func (r *firestoreRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	doc, err := r.client.Collection("rooms").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Room", nil)
		}
		return nil, errors.Internal("Failed to get room", err)
	}
	return roomFromDoc(doc)
}

func (r *firestoreRoomRepository) ListByParticipant(ctx context.Context, userID string, filter repository.RoomFilter) ([]*entity.Room, int64, error) {
	iter := r.client.Collection("rooms").
		Where("participants", "array-contains", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	// Firestore has no substring match, so search is applied after the
	// membership query.
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []*entity.Room
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate rooms", err)
		}

		room, err := roomFromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		if search != "" && !strings.Contains(strings.ToLower(room.Name), search) {
			continue
		}
		matched = append(matched, room)
	}

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*entity.Room{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	if matched == nil {
		matched = []*entity.Room{}
	}
	return matched, total, nil
}

func (r *firestoreRoomRepository) AddParticipant(ctx context.Context, roomID, userID string) error {
	_, err := r.client.Collection("rooms").Doc(roomID).Update(ctx, []firestore.Update{
		{Path: "participants", Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Room", nil)
		}
		return errors.Internal("Failed to add participant", err)
	}
	return nil
}

func (r *firestoreRoomRepository) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := r.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return room.HasParticipant(userID), nil
}

func (r *firestoreRoomRepository) ParticipantRoomIDs(ctx context.Context, userID string) ([]string, error) {
	refs, err := r.client.Collection("rooms").
		Where("participants", "array-contains", userID).
		Select().
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list participant rooms", err)
	}

	ids := make([]string, 0, len(refs))
	for _, doc := range refs {
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func roomFromDoc(doc *firestore.DocumentSnapshot) (*entity.Room, error) {
	var room entity.Room
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse room data", err)
	}
	room.ID = doc.Ref.ID
	return &room, nil
}
