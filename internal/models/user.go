package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"`
	Bio       string    `json:"bio"`
	Avatar    string    `json:"avatar" gorm:"default:'default-avatar.png'"`
	Points    int       `json:"points" gorm:"default:0"`
	Level     int       `json:"level" gorm:"default:1"`
	Badges    []Badge   `json:"badges,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CalculateLevel derives the level from total points.
func (u *User) CalculateLevel() int {
	u.Level = u.Points/100 + 1
	return u.Level
}

// AddPoints applies an award and reports whether the user leveled up.
// A single award that crosses more than one 100-point boundary still
// reports a single level-up.
func (u *User) AddPoints(points int) bool {
	oldLevel := u.Level
	u.Points += points
	u.CalculateLevel()
	return u.Level > oldLevel
}

func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Auth DTOs
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
