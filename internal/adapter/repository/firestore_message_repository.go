package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/pkg/errors"
)

// Firestore caps "in" filters at 30 values.
const firestoreInLimit = 30

type firestoreMessageRepository struct {
	client *firestore.Client
}

// NewFirestoreMessageRepository keeps messages in a top-level "messages"
// collection. IDs come from a single counter document so they are globally
// unique and increase in commit order; the zero-padded document ID keeps the
// natural key order equal to numeric order.
func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) counterRef() *firestore.DocumentRef {
	return r.client.Collection("counters").Doc("messages")
}

func (r *firestoreMessageRepository) messageRef(id int64) *firestore.DocumentRef {
	return r.client.Collection("messages").Doc(fmt.Sprintf("%020d", id))
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	roomRef := r.client.Collection("rooms").Doc(message.RoomID)
	counterRef := r.counterRef()

	var stored entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(roomRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Room", nil)
			}
			return err
		}

		var next int64 = 1
		counter, err := tx.Get(counterRef)
		switch {
		case err == nil:
			current, err := counter.DataAt("next")
			if err != nil {
				return err
			}
			if n, ok := current.(int64); ok {
				next = n
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		stored = entity.Message{
			ID:         next,
			RoomID:     message.RoomID,
			SenderID:   message.SenderID,
			Content:    message.Content,
			Attachment: message.Attachment,
			IsRead:     false,
			Timestamp:  time.Now().UTC(),
		}
		if err := tx.Set(counterRef, map[string]interface{}{"next": next + 1}); err != nil {
			return err
		}
		return tx.Create(r.messageRef(next), &stored)
	})
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return err
		}
		return errors.Internal("Failed to append message", err)
	}

	message.ID = stored.ID
	message.Timestamp = stored.Timestamp
	message.IsRead = false
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id int64) (*entity.Message, error) {
	doc, err := r.messageRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreMessageRepository) ListByRoom(ctx context.Context, roomID string, afterID int64, limit int) ([]*entity.Message, error) {
	query := r.client.Collection("messages").
		Where("roomId", "==", roomID).
		Where("id", ">", afterID).
		OrderBy("id", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	messages, err := collectMessages(query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func (r *firestoreMessageRepository) ListUnread(ctx context.Context, roomIDs []string, excludeSender string) ([]*entity.Message, error) {
	result := []*entity.Message{}
	for start := 0; start < len(roomIDs); start += firestoreInLimit {
		end := start + firestoreInLimit
		if end > len(roomIDs) {
			end = len(roomIDs)
		}

		query := r.client.Collection("messages").
			Where("roomId", "in", roomIDs[start:end]).
			Where("isRead", "==", false)
		chunk, err := collectMessages(query.Documents(ctx))
		if err != nil {
			return nil, errors.Internal("Failed to list unread messages", err)
		}
		for _, m := range chunk {
			if m.SenderID != excludeSender {
				result = append(result, m)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.messageRef(id).Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", nil)
		}
		return errors.Internal("Failed to mark message read", err)
	}
	return nil
}

func collectMessages(iter *firestore.DocumentIterator) ([]*entity.Message, error) {
	defer iter.Stop()

	messages := []*entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}
	return messages, nil
}
