package repository

import (
	"time"

	"campuslink/internal/domain/entity"
)

type userModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Email     string `gorm:"uniqueIndex;size:255;not null"`
	FullName  string `gorm:"size:255;not null"`
	Role      string `gorm:"size:20;not null"`
	CreatedAt time.Time
}

func (userModel) TableName() string { return "users" }

type roomModel struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Name               string `gorm:"size:255;not null"`
	RoomType           string `gorm:"size:20;not null"`
	RepairRequestID    *string
	AcademicQuestionID *string
	CreatedAt          time.Time `gorm:"index"`
}

func (roomModel) TableName() string { return "rooms" }

// roomParticipantModel doubles as the identity → rooms membership index.
type roomParticipantModel struct {
	RoomID   string `gorm:"primaryKey;size:36"`
	UserID   string `gorm:"primaryKey;size:36;index"`
	JoinedAt time.Time
}

func (roomParticipantModel) TableName() string { return "room_participants" }

type messageModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RoomID     string `gorm:"index:idx_messages_room_read,priority:1;size:36;not null"`
	SenderID   string `gorm:"size:36;not null"`
	Content    string `gorm:"not null"`
	Attachment *string
	IsRead     bool      `gorm:"index:idx_messages_room_read,priority:2;not null;default:false"`
	Timestamp  time.Time `gorm:"not null"`
}

func (messageModel) TableName() string { return "messages" }

func (m *userModel) toEntity() *entity.User {
	return &entity.User{
		ID:        m.ID,
		Email:     m.Email,
		FullName:  m.FullName,
		Role:      entity.Role(m.Role),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (m *roomModel) toEntity(participants []string) *entity.Room {
	return &entity.Room{
		ID:                 m.ID,
		Name:               m.Name,
		RoomType:           entity.RoomType(m.RoomType),
		Participants:       participants,
		RepairRequestID:    m.RepairRequestID,
		AcademicQuestionID: m.AcademicQuestionID,
		CreatedAt:          m.CreatedAt.UTC(),
	}
}

func (m *messageModel) toEntity() *entity.Message {
	return &entity.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		Content:    m.Content,
		Attachment: m.Attachment,
		IsRead:     m.IsRead,
		Timestamp:  m.Timestamp.UTC(),
	}
}
