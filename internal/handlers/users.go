package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/middleware"
	"github.com/habitforge/habitforge-api/internal/models"
)

func GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.Preload("Badges").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	squads := memberSquads(userID)

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"bio":       user.Bio,
		"avatar":    user.Avatar,
		"points":    user.Points,
		"level":     user.Level,
		"badges":    user.Badges,
		"squads":    squads,
		"createdAt": user.CreatedAt,
		"updatedAt": user.UpdatedAt,
	})
}

// GetUserProfile returns a public view of another user — no email,
// no credentials.
func GetUserProfile(c *fiber.Ctx) error {
	profileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.Preload("Badges").First(&user, profileID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"username":  user.Username,
		"bio":       user.Bio,
		"avatar":    user.Avatar,
		"points":    user.Points,
		"level":     user.Level,
		"badges":    user.Badges,
		"squads":    memberSquads(user.ID),
		"createdAt": user.CreatedAt,
	})
}

func UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username != nil && *req.Username != user.Username {
		var existing models.User
		if err := database.DB.Where("username = ?", *req.Username).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Username already taken",
			})
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Avatar != nil && *req.Avatar != "" {
		user.Avatar = *req.Avatar
	}

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(user)
}

// SearchUsers finds users by username substring, case-insensitive.
func SearchUsers(c *fiber.Ctx) error {
	q := c.Query("q")
	if len(q) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search query must be at least 2 characters",
		})
	}

	var users []models.User
	database.DB.
		Where("LOWER(username) LIKE LOWER(?)", "%"+q+"%").
		Select("id, username, avatar, level, points").
		Limit(10).
		Find(&users)

	return c.JSON(users)
}

// DeleteAccount removes the user and everything tied to them: habits and
// their completions, squad memberships (deleting any squad left empty),
// activities and their cheers, then the account itself.
func DeleteAccount(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Habits and completions
	var habitIDs []uuid.UUID
	database.DB.Model(&models.Habit{}).Where("user_id = ?", userID).Pluck("id", &habitIDs)
	if len(habitIDs) > 0 {
		database.DB.Where("habit_id IN ?", habitIDs).Delete(&models.Completion{})
	}
	database.DB.Where("user_id = ?", userID).Delete(&models.Habit{})

	// Memberships; squads left empty are deleted outright
	var squadIDs []uuid.UUID
	database.DB.Model(&models.SquadMember{}).Where("user_id = ?", userID).Pluck("squad_id", &squadIDs)
	database.DB.Where("user_id = ?", userID).Delete(&models.SquadMember{})
	for _, squadID := range squadIDs {
		var remaining int64
		database.DB.Model(&models.SquadMember{}).Where("squad_id = ?", squadID).Count(&remaining)
		if remaining == 0 {
			deleteSquad(squadID)
		}
	}

	// Activities and their cheers
	var activityIDs []uuid.UUID
	database.DB.Model(&models.Activity{}).Where("user_id = ?", userID).Pluck("id", &activityIDs)
	if len(activityIDs) > 0 {
		database.DB.Where("activity_id IN ?", activityIDs).Delete(&models.Cheer{})
	}
	database.DB.Where("user_id = ?", userID).Delete(&models.Activity{})
	database.DB.Where("user_id = ?", userID).Delete(&models.Cheer{})

	// Badges, then the account
	database.DB.Where("user_id = ?", userID).Delete(&models.Badge{})
	if err := database.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete account",
		})
	}

	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}

// memberSquads lists the squads a user belongs to, for profile payloads.
func memberSquads(userID uuid.UUID) []models.Squad {
	var squads []models.Squad
	database.DB.
		Joins("JOIN squad_members ON squad_members.squad_id = squads.id").
		Where("squad_members.user_id = ?", userID).
		Select("squads.id, squads.name, squads.icon").
		Find(&squads)
	return squads
}
