package repository

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/pkg/errors"
)

type gormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) repository.RoomRepository {
	return &gormRoomRepository{db: db}
}

func (r *gormRoomRepository) Create(ctx context.Context, room *entity.Room) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.CreatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := roomModel{
			ID:                 room.ID,
			Name:               room.Name,
			RoomType:           string(room.RoomType),
			RepairRequestID:    room.RepairRequestID,
			AcademicQuestionID: room.AcademicQuestionID,
			CreatedAt:          room.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		participants := make([]roomParticipantModel, 0, len(room.Participants))
		for _, userID := range room.Participants {
			participants = append(participants, roomParticipantModel{
				RoomID:   room.ID,
				UserID:   userID,
				JoinedAt: room.CreatedAt,
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
	})
	if err != nil {
		return errors.Internal("Failed to create room", err)
	}
	return nil
}

func (r *gormRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	var model roomModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Room", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get room", err)
	}

	participants, err := r.participantsOf(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return model.toEntity(participants[id]), nil
}

func (r *gormRoomRepository) ListByParticipant(ctx context.Context, userID string, filter repository.RoomFilter) ([]*entity.Room, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&roomModel{}).
			Joins("JOIN room_participants rp ON rp.room_id = rooms.id").
			Where("rp.user_id = ?", userID)
		if search := strings.TrimSpace(filter.Search); search != "" {
			q = q.Where("LOWER(rooms.name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count rooms", err)
	}

	var models []roomModel
	q := query().Select("rooms.*").Order("rooms.created_at DESC").Order("rooms.id")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, errors.Internal("Failed to list rooms", err)
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	participants, err := r.participantsOf(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	rooms := make([]*entity.Room, 0, len(models))
	for i := range models {
		rooms = append(rooms, models[i].toEntity(participants[models[i].ID]))
	}
	return rooms, total, nil
}

func (r *gormRoomRepository) AddParticipant(ctx context.Context, roomID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomModel{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
			return errors.Internal("Failed to get room", err)
		}
		if count == 0 {
			return errors.NotFound("Room", nil)
		}

		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roomParticipantModel{
			RoomID:   roomID,
			UserID:   userID,
			JoinedAt: time.Now().UTC(),
		}).Error
		if err != nil {
			return errors.Internal("Failed to add participant", err)
		}
		return nil
	})
}

func (r *gormRoomRepository) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&roomParticipantModel{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Internal("Failed to check participant", err)
	}
	return count > 0, nil
}

func (r *gormRoomRepository) ParticipantRoomIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&roomParticipantModel{}).
		Where("user_id = ?", userID).
		Order("room_id").
		Pluck("room_id", &ids).Error
	if err != nil {
		return nil, errors.Internal("Failed to list participant rooms", err)
	}
	return ids, nil
}

func (r *gormRoomRepository) participantsOf(ctx context.Context, roomIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}

	var rows []roomParticipantModel
	err := r.db.WithContext(ctx).
		Where("room_id IN ?", roomIDs).
		Order("joined_at").Order("user_id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Internal("Failed to load participants", err)
	}
	for _, row := range rows {
		result[row.RoomID] = append(result[row.RoomID], row.UserID)
	}
	return result, nil
}
