package handlers

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/middleware"
	"github.com/habitforge/habitforge-api/internal/models"
)

// GetSquads lists squads: ?my=true for the caller's squads, ?public=true
// for discoverable ones, otherwise everything.
func GetSquads(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	query := database.DB.Model(&models.Squad{}).
		Preload("Creator").
		Preload("Members.User").
		Order("squads.created_at DESC")

	if c.Query("my") == "true" {
		query = query.
			Joins("JOIN squad_members ON squad_members.squad_id = squads.id").
			Where("squad_members.user_id = ?", userID)
	} else if c.Query("public") == "true" {
		query = query.Where("is_public = ?", true)
	}

	var squads []models.Squad
	if err := query.Find(&squads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch squads",
		})
	}

	return c.JSON(squads)
}

func GetSquad(c *fiber.Ctx) error {
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	var squad models.Squad
	if err := database.DB.
		Preload("Creator").
		Preload("Members.User").
		First(&squad, squadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Squad not found",
		})
	}

	// Lazy weekly reset on read
	before := squad.WeeklyGoal
	squad.ResetWeeklyGoal(time.Now())
	if squad.WeeklyGoal != before {
		database.DB.Model(&squad).Updates(map[string]interface{}{
			"weekly_current": squad.WeeklyGoal.Current,
			"weekly_week":    squad.WeeklyGoal.Week,
			"weekly_year":    squad.WeeklyGoal.Year,
		})
	}

	return c.JSON(squad)
}

func CreateSquad(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateSquadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Squad name is required",
		})
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	maxMembers := req.MaxMembers
	if maxMembers <= 0 {
		maxMembers = 10
	}
	icon := req.Icon
	if icon == "" {
		icon = "🎯"
	}

	now := time.Now()
	year, week := now.ISOWeek()

	squad := models.Squad{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
		IsPublic:    isPublic,
		MaxMembers:  maxMembers,
		Category:    normalizeEnum(req.Category, models.SquadCategories, "mixed"),
		Icon:        icon,
		WeeklyGoal: models.WeeklyGoal{
			Target: 100,
			Week:   week,
			Year:   year,
		},
	}

	if err := database.DB.Create(&squad).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create squad",
		})
	}

	// Creator is implicitly the first member
	member := models.SquadMember{
		SquadID:  squad.ID,
		UserID:   userID,
		JoinedAt: now,
	}
	if err := database.DB.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add creator as member",
		})
	}

	database.DB.Preload("Creator").Preload("Members.User").First(&squad, squad.ID)

	return c.Status(fiber.StatusCreated).JSON(squad)
}

func JoinSquad(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	var squad models.Squad
	if err := database.DB.Preload("Members").First(&squad, squadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Squad not found",
		})
	}

	result := squad.AddMember(userID)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": result.Message,
		})
	}

	member := squad.Members[len(squad.Members)-1]
	if err := database.DB.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join squad",
		})
	}

	LogActivity(squad.ID, userID, "joined_squad", "joined the squad!", nil)

	database.DB.Preload("Creator").Preload("Members.User").First(&squad, squad.ID)

	return c.JSON(squad)
}

// LeaveSquad removes the caller's membership. The creator may not leave
// while other members remain; the last member leaving deletes the squad.
func LeaveSquad(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	var squad models.Squad
	if err := database.DB.Preload("Members").First(&squad, squadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Squad not found",
		})
	}

	if !squad.IsMember(userID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You are not a member of this squad",
		})
	}

	if squad.CreatorID == userID && len(squad.Members) > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Transfer ownership before leaving",
		})
	}

	if len(squad.Members) == 1 {
		deleteSquad(squad.ID)
		return c.JSON(fiber.Map{
			"message": "Left squad successfully. Squad has been deleted as you were the last member.",
		})
	}

	database.DB.Where("squad_id = ? AND user_id = ?", squadID, userID).Delete(&models.SquadMember{})

	return c.JSON(fiber.Map{"message": "Left squad successfully"})
}

// GetLeaderboard ranks squad members by squad-scoped points.
func GetLeaderboard(c *fiber.Ctx) error {
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	var squad models.Squad
	if err := database.DB.Preload("Members.User").First(&squad, squadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Squad not found",
		})
	}

	leaderboard := make([]models.LeaderboardEntry, len(squad.Members))
	for i, m := range squad.Members {
		leaderboard[i] = models.LeaderboardEntry{
			UserID:      m.UserID,
			Username:    m.User.Username,
			Avatar:      m.User.Avatar,
			Level:       m.User.Level,
			SquadPoints: m.Points,
			TotalPoints: m.User.Points,
			JoinedAt:    m.JoinedAt,
		}
	}
	sort.Slice(leaderboard, func(i, j int) bool {
		return leaderboard[i].SquadPoints > leaderboard[j].SquadPoints
	})

	return c.JSON(leaderboard)
}

// UpdateSquad edits squad metadata. Creator only.
func UpdateSquad(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	var squad models.Squad
	if err := database.DB.First(&squad, squadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Squad not found",
		})
	}

	if squad.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the creator can update squad details",
		})
	}

	var req models.UpdateSquadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && *req.Name != "" {
		squad.Name = *req.Name
	}
	if req.Description != nil {
		squad.Description = *req.Description
	}
	if req.IsPublic != nil {
		squad.IsPublic = *req.IsPublic
	}
	if req.MaxMembers != nil && *req.MaxMembers > 0 {
		squad.MaxMembers = *req.MaxMembers
	}
	if req.WeeklyGoalTarget != nil && *req.WeeklyGoalTarget > 0 {
		squad.WeeklyGoal.Target = *req.WeeklyGoalTarget
	}
	if req.Category != nil {
		squad.Category = normalizeEnum(*req.Category, models.SquadCategories, squad.Category)
	}
	if req.Icon != nil && *req.Icon != "" {
		squad.Icon = *req.Icon
	}

	if err := database.DB.Save(&squad).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update squad",
		})
	}

	database.DB.Preload("Creator").Preload("Members.User").First(&squad, squad.ID)

	return c.JSON(squad)
}

// deleteSquad removes a squad with its memberships, activities, and the
// cheers on those activities.
func deleteSquad(squadID uuid.UUID) {
	var activityIDs []uuid.UUID
	database.DB.Model(&models.Activity{}).Where("squad_id = ?", squadID).Pluck("id", &activityIDs)
	if len(activityIDs) > 0 {
		database.DB.Where("activity_id IN ?", activityIDs).Delete(&models.Cheer{})
	}
	database.DB.Where("squad_id = ?", squadID).Delete(&models.Activity{})
	database.DB.Where("squad_id = ?", squadID).Delete(&models.SquadMember{})
	database.DB.Delete(&models.Squad{}, squadID)
}
