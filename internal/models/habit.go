package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge-api/internal/progression"
	"gorm.io/gorm"
)

var HabitCategories = []string{"health", "fitness", "productivity", "learning", "mindfulness", "social", "other"}

var HabitFrequencies = []string{"daily", "weekly", "custom"}

type Habit struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID    `json:"userId" gorm:"type:uuid;index;not null"`
	Title         string       `json:"title" gorm:"not null"`
	Description   string       `json:"description"`
	Category      string       `json:"category" gorm:"default:other"`
	Frequency     string       `json:"frequency" gorm:"default:daily"`
	TargetDays    []string     `json:"targetDays" gorm:"serializer:json"`
	Color         string       `json:"color" gorm:"default:'#4A90E2'"`
	CurrentStreak int          `json:"currentStreak" gorm:"default:0"`
	LongestStreak int          `json:"longestStreak" gorm:"default:0"`
	IsActive      bool         `json:"isActive" gorm:"default:true"`
	Completions   []Completion `json:"completions,omitempty" gorm:"foreignKey:HabitID"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Completion records a single day's completion of a habit. At most one
// exists per habit per calendar day.
type Completion struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	HabitID   uuid.UUID `json:"habitId" gorm:"type:uuid;index;not null"`
	Date      time.Time `json:"date" gorm:"not null"`
	Points    int       `json:"points" gorm:"default:10"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Completion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CompleteResult reports the outcome of a completion attempt. Domain
// rejections come back with Success=false rather than an error.
type CompleteResult struct {
	Success bool
	Message string
	Points  int
	Streak  int
}

// DayOf truncates a timestamp to local midnight.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Complete marks the habit done for the day of now. It rejects a second
// completion on the same calendar day without mutating anything. The
// caller persists the habit and the appended completion.
func (h *Habit) Complete(now time.Time) CompleteResult {
	today := DayOf(now)

	for _, completion := range h.Completions {
		if DayOf(completion.Date).Equal(today) {
			return CompleteResult{Success: false, Message: "Already completed today"}
		}
	}

	points := progression.CompletionPoints(h.CurrentStreak)

	h.Completions = append(h.Completions, Completion{
		HabitID: h.ID,
		Date:    today,
		Points:  points,
	})

	h.CurrentStreak++
	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}

	return CompleteResult{Success: true, Points: points, Streak: h.CurrentStreak}
}

// UpdateStreak resets the current streak when the most recent completion
// is older than yesterday. This is a read-time correction: it emits no
// activity and touches no points. Longest streak is never lowered.
func (h *Habit) UpdateStreak(now time.Time) {
	if len(h.Completions) == 0 {
		return
	}

	today := DayOf(now)
	yesterday := today.AddDate(0, 0, -1)

	last := DayOf(h.Completions[len(h.Completions)-1].Date)
	if last.Before(yesterday) {
		h.CurrentStreak = 0
	}
}

// Habit DTOs
type CreateHabitRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Frequency   string   `json:"frequency"`
	TargetDays  []string `json:"targetDays"`
	Color       string   `json:"color"`
}

type UpdateHabitRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Frequency   *string   `json:"frequency"`
	TargetDays  *[]string `json:"targetDays"`
	Color       *string   `json:"color"`
}

type HabitStats struct {
	TotalHabits      int     `json:"totalHabits"`
	TotalCompletions int     `json:"totalCompletions"`
	AvgStreak        float64 `json:"avgStreak"`
	LongestStreak    int     `json:"longestStreak"`
}
