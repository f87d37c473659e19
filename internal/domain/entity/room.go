package entity

import "time"

type RoomType string

const (
	RoomTypeRepair   RoomType = "repair"
	RoomTypeAcademic RoomType = "academic"
	RoomTypeGeneral  RoomType = "general"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeRepair, RoomTypeAcademic, RoomTypeGeneral:
		return true
	}
	return false
}

// MinParticipants is enforced when a room is created only.
const MinParticipants = 2

type Room struct {
	ID                 string    `json:"id" firestore:"id"`
	Name               string    `json:"name" firestore:"name"`
	RoomType           RoomType  `json:"room_type" firestore:"roomType"`
	Participants       []string  `json:"participant_ids" firestore:"participants"`
	RepairRequestID    *string   `json:"repair_request,omitempty" firestore:"repairRequestId,omitempty"`
	AcademicQuestionID *string   `json:"academic_question,omitempty" firestore:"academicQuestionId,omitempty"`
	CreatedAt          time.Time `json:"created_at" firestore:"createdAt"`
}

func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
