package entity

import (
	"time"
)

type User struct {
	ID        string    `json:"id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	FullName  string    `json:"full_name" firestore:"fullName"`
	Role      Role      `json:"role" firestore:"role"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		DisplayName: u.FullName,
		Role:        u.Role,
	}
}
