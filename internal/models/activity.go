package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Activity struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SquadID     uuid.UUID `json:"squadId" gorm:"type:uuid;index;not null"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;index;not null"`
	Type        string    `json:"type" gorm:"not null"` // habit_completed, level_up, badge_earned, streak_milestone, joined_squad
	Description string    `json:"description" gorm:"not null"`
	Metadata    *string   `json:"metadata"` // JSON string: habitName, points, streak, level, badgeName per type
	Cheers      []Cheer   `json:"cheers" gorm:"foreignKey:ActivityID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Cheer is a toggled per-user reaction on an activity entry.
type Cheer struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ActivityID uuid.UUID `json:"activityId" gorm:"type:uuid;index;not null"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	CreatedAt  time.Time `json:"createdAt"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ch *Cheer) BeforeCreate(tx *gorm.DB) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	return nil
}
