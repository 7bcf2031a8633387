package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var SquadCategories = []string{"fitness", "productivity", "learning", "wellness", "mixed"}

type Squad struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string        `json:"name" gorm:"not null"`
	Description string        `json:"description"`
	CreatorID   uuid.UUID     `json:"creatorId" gorm:"type:uuid;index;not null"`
	IsPublic    bool          `json:"isPublic"`
	MaxMembers  int           `json:"maxMembers" gorm:"default:10"`
	Category    string        `json:"category" gorm:"default:mixed"`
	Icon        string        `json:"icon" gorm:"default:'🎯'"`
	WeeklyGoal  WeeklyGoal    `json:"weeklyGoal" gorm:"embedded;embeddedPrefix:weekly_"`
	Members     []SquadMember `json:"members,omitempty" gorm:"foreignKey:SquadID"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	Creator User `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
}

// WeeklyGoal tracks squad-wide points against a target for the current
// ISO week. Current is zeroed lazily when read in a later week.
type WeeklyGoal struct {
	Target  int `json:"target" gorm:"default:100"`
	Current int `json:"current" gorm:"default:0"`
	Week    int `json:"week" gorm:"default:0"`
	Year    int `json:"year" gorm:"default:0"`
}

func (s *Squad) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// MemberResult reports domain-rule outcomes for membership operations.
type MemberResult struct {
	Success bool
	Message string
}

// AddMember appends a membership entry with zero squad points. Rejects
// when the squad is at capacity or the user is already a member.
func (s *Squad) AddMember(userID uuid.UUID) MemberResult {
	if len(s.Members) >= s.MaxMembers {
		return MemberResult{Success: false, Message: "Squad is full"}
	}

	for _, m := range s.Members {
		if m.UserID == userID {
			return MemberResult{Success: false, Message: "Already a member"}
		}
	}

	s.Members = append(s.Members, SquadMember{
		SquadID:  s.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return MemberResult{Success: true}
}

// RemoveMember drops the user's membership entry, if present.
func (s *Squad) RemoveMember(userID uuid.UUID) {
	kept := s.Members[:0]
	for _, m := range s.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	s.Members = kept
}

// IsMember reports whether the user holds a membership entry.
func (s *Squad) IsMember(userID uuid.UUID) bool {
	for _, m := range s.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// AddMemberPoints credits points to the named member and to the weekly
// goal. Returns false when the user is not a member.
func (s *Squad) AddMemberPoints(userID uuid.UUID, points int) bool {
	for i := range s.Members {
		if s.Members[i].UserID == userID {
			s.Members[i].Points += points
			s.WeeklyGoal.Current += points
			return true
		}
	}
	return false
}

// ResetWeeklyGoal zeroes the weekly counter when now falls in a
// different ISO week than the stored one. Must run before any read of
// the squad's goal progress.
func (s *Squad) ResetWeeklyGoal(now time.Time) {
	year, week := now.ISOWeek()
	if s.WeeklyGoal.Week != week || s.WeeklyGoal.Year != year {
		s.WeeklyGoal.Current = 0
		s.WeeklyGoal.Week = week
		s.WeeklyGoal.Year = year
	}
}

type SquadMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SquadID   uuid.UUID `json:"squadId" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;index;not null"`
	JoinedAt  time.Time `json:"joinedAt"`
	Points    int       `json:"points" gorm:"default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (sm *SquadMember) BeforeCreate(tx *gorm.DB) error {
	if sm.ID == uuid.Nil {
		sm.ID = uuid.New()
	}
	if sm.JoinedAt.IsZero() {
		sm.JoinedAt = time.Now()
	}
	return nil
}

// Squad DTOs
type CreateSquadRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"isPublic"`
	MaxMembers  int    `json:"maxMembers"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
}

type UpdateSquadRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	IsPublic         *bool   `json:"isPublic"`
	MaxMembers       *int    `json:"maxMembers"`
	WeeklyGoalTarget *int    `json:"weeklyGoalTarget"`
	Category         *string `json:"category"`
	Icon             *string `json:"icon"`
}

type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	Level       int       `json:"level"`
	SquadPoints int       `json:"squadPoints"`
	TotalPoints int       `json:"totalPoints"`
	JoinedAt    time.Time `json:"joinedAt"`
}
