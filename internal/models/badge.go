package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is a one-time achievement held by a user. A badge name is
// unique within a user's badge set regardless of which rule awarded it.
type Badge struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;index;not null;uniqueIndex:idx_user_badge_name"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex:idx_user_badge_name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.EarnedAt.IsZero() {
		b.EarnedAt = time.Now()
	}
	return nil
}
