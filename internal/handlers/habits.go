package handlers

import (
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/middleware"
	"github.com/habitforge/habitforge-api/internal/models"
	"github.com/habitforge/habitforge-api/internal/progression"
	"gorm.io/gorm"
)

// GetHabits lists the user's active habits, newest first. Streaks are
// lapse-corrected on read; corrections are persisted.
func GetHabits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var habits []models.Habit
	if err := database.DB.
		Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Completions", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		Order("created_at DESC").
		Find(&habits).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch habits",
		})
	}

	now := time.Now()
	for i := range habits {
		before := habits[i].CurrentStreak
		habits[i].UpdateStreak(now)
		if habits[i].CurrentStreak != before {
			database.DB.Model(&habits[i]).Update("current_streak", habits[i].CurrentStreak)
		}
	}

	return c.JSON(habits)
}

func CreateHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	habit := models.Habit{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    normalizeEnum(req.Category, models.HabitCategories, "other"),
		Frequency:   normalizeEnum(req.Frequency, models.HabitFrequencies, "daily"),
		TargetDays:  req.TargetDays,
		IsActive:    true,
	}
	habit.Color = req.Color
	if habit.Color == "" {
		habit.Color = "#4A90E2"
	}

	if err := database.DB.Create(&habit).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create habit",
		})
	}

	// Creation-time badge path: exact habit counts only
	var user models.User
	if err := database.DB.Preload("Badges").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load user",
		})
	}

	var habitCount int64
	database.DB.Model(&models.Habit{}).Where("user_id = ?", userID).Count(&habitCount)

	newBadges := awardBadges(&user, progression.CreationBadges(int(habitCount), user.HasBadge))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"habit":     habit,
		"newBadges": newBadges,
	})
}

// CompleteHabit marks a habit done for today and fans out every
// side effect of the completion: habit streak and points, user points
// and level, badge awards, squad point credits, and activity entries.
// Each step persists on its own; there is no rollback if a later step
// fails — this is a deliberate consistency relaxation.
func CompleteHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var habit models.Habit
	if err := database.DB.
		Where("id = ? AND user_id = ?", habitID, userID).
		Preload("Completions", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		First(&habit).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Habit not found",
		})
	}

	result := habit.Complete(time.Now())
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": result.Message,
		})
	}

	// 1. Persist the habit and today's completion
	completion := &habit.Completions[len(habit.Completions)-1]
	if err := database.DB.Create(completion).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record completion",
		})
	}
	database.DB.Model(&habit).Updates(map[string]interface{}{
		"current_streak": habit.CurrentStreak,
		"longest_streak": habit.LongestStreak,
	})

	// 2. Apply points to the user
	var user models.User
	if err := database.DB.Preload("Badges").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load user",
		})
	}
	leveledUp := user.AddPoints(result.Points)
	database.DB.Model(&user).Updates(map[string]interface{}{
		"points": user.Points,
		"level":  user.Level,
	})

	// 3. Badge eligibility against live aggregates
	counts := aggregateCounts(userID, result.Streak, user.Level)
	newBadges := awardBadges(&user, progression.EligibleBadges(counts, user.HasBadge))

	// 4-7. Squad point credits and activity fan-out
	var squads []models.Squad
	database.DB.
		Joins("JOIN squad_members ON squad_members.squad_id = squads.id").
		Where("squad_members.user_id = ?", userID).
		Preload("Members").
		Find(&squads)

	for i := range squads {
		squad := &squads[i]
		if squad.AddMemberPoints(userID, result.Points) {
			database.DB.Model(squad).Update("weekly_current", squad.WeeklyGoal.Current)
			database.DB.Model(&models.SquadMember{}).
				Where("squad_id = ? AND user_id = ?", squad.ID, userID).
				Update("points", gorm.Expr("points + ?", result.Points))
		}

		LogActivity(squad.ID, userID, "habit_completed",
			fmt.Sprintf("completed %q", habit.Title),
			map[string]interface{}{
				"habitName": habit.Title,
				"points":    result.Points,
				"streak":    result.Streak,
			})

		if leveledUp {
			LogActivity(squad.ID, userID, "level_up",
				fmt.Sprintf("reached Level %d!", user.Level),
				map[string]interface{}{"level": user.Level})
		}

		if result.Streak > 0 && result.Streak%7 == 0 {
			LogActivity(squad.ID, userID, "streak_milestone",
				fmt.Sprintf("achieved a %d-day streak on %q! 🔥", result.Streak, habit.Title),
				map[string]interface{}{
					"habitName": habit.Title,
					"streak":    result.Streak,
				})
		}

		for _, badge := range newBadges {
			LogActivity(squad.ID, userID, "badge_earned",
				fmt.Sprintf("earned the %q badge! %s", badge.Name, badge.Icon),
				map[string]interface{}{"badgeName": badge.Name})
		}
	}

	return c.JSON(fiber.Map{
		"habit":      habit,
		"points":     result.Points,
		"streak":     result.Streak,
		"leveledUp":  leveledUp,
		"userLevel":  user.Level,
		"userPoints": user.Points,
		"newBadges":  newBadges,
	})
}

func UpdateHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var habit models.Habit
	if err := database.DB.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Habit not found",
		})
	}

	var req models.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		habit.Title = *req.Title
	}
	if req.Description != nil {
		habit.Description = *req.Description
	}
	if req.Category != nil {
		habit.Category = normalizeEnum(*req.Category, models.HabitCategories, habit.Category)
	}
	if req.Frequency != nil {
		habit.Frequency = normalizeEnum(*req.Frequency, models.HabitFrequencies, habit.Frequency)
	}
	if req.TargetDays != nil {
		habit.TargetDays = *req.TargetDays
	}
	if req.Color != nil && *req.Color != "" {
		habit.Color = *req.Color
	}

	if err := database.DB.Save(&habit).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update habit",
		})
	}

	return c.JSON(habit)
}

// ArchiveHabit soft-deletes a habit by clearing its active flag. The
// habit and its history survive; only an account deletion removes them.
func ArchiveHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var habit models.Habit
	if err := database.DB.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Habit not found",
		})
	}

	habit.IsActive = false
	if err := database.DB.Save(&habit).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to archive habit",
		})
	}

	return c.JSON(fiber.Map{"message": "Habit archived successfully"})
}

func GetHabitStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var habits []models.Habit
	database.DB.
		Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Completions").
		Find(&habits)

	stats := models.HabitStats{TotalHabits: len(habits)}
	streakSum := 0
	for _, h := range habits {
		stats.TotalCompletions += len(h.Completions)
		streakSum += h.CurrentStreak
		if h.LongestStreak > stats.LongestStreak {
			stats.LongestStreak = h.LongestStreak
		}
	}
	if len(habits) > 0 {
		stats.AvgStreak = math.Round(float64(streakSum)/float64(len(habits))*10) / 10
	}

	return c.JSON(stats)
}

// aggregateCounts gathers the lifetime aggregates badge rules run
// against. Archived habits still count: lifetime numbers never shrink.
func aggregateCounts(userID uuid.UUID, streak, level int) progression.Counts {
	var habitCount int64
	database.DB.Model(&models.Habit{}).Where("user_id = ?", userID).Count(&habitCount)

	var completionCount int64
	database.DB.Model(&models.Completion{}).
		Joins("JOIN habits ON habits.id = completions.habit_id").
		Where("habits.user_id = ?", userID).
		Count(&completionCount)

	return progression.Counts{
		Habits:      int(habitCount),
		Completions: int(completionCount),
		Streak:      streak,
		Level:       level,
	}
}

// awardBadges stores each spec as a badge on the user and returns the
// created records.
func awardBadges(user *models.User, specs []progression.BadgeSpec) []models.Badge {
	newBadges := []models.Badge{}
	for _, spec := range specs {
		badge := models.Badge{
			UserID:      user.ID,
			Name:        spec.Name,
			Icon:        spec.Icon,
			Description: spec.Description,
			EarnedAt:    time.Now(),
		}
		if err := database.DB.Create(&badge).Error; err != nil {
			continue
		}
		user.Badges = append(user.Badges, badge)
		newBadges = append(newBadges, badge)
	}
	return newBadges
}

// normalizeEnum returns value if it is one of allowed, else fallback.
func normalizeEnum(value string, allowed []string, fallback string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}
