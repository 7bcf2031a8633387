package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/middleware"
	"github.com/habitforge/habitforge-api/internal/models"
)

// GetSquadActivity returns a squad's feed, newest first.
func GetSquadActivity(c *fiber.Ctx) error {
	squadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid squad ID",
		})
	}

	limit, skip := feedWindow(c)

	var activities []models.Activity
	database.DB.Where("squad_id = ?", squadID).
		Preload("User").
		Preload("Cheers.User").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&activities)

	return c.JSON(activities)
}

// GetUserActivity returns a user's feed across all their squads.
func GetUserActivity(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	limit, skip := feedWindow(c)

	var activities []models.Activity
	database.DB.Where("user_id = ?", targetID).
		Preload("User").
		Preload("Cheers.User").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&activities)

	return c.JSON(activities)
}

// CheerActivity toggles the caller's cheer on an activity: a second
// cheer removes the first.
func CheerActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	activityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid activity ID",
		})
	}

	var activity models.Activity
	if err := database.DB.First(&activity, activityID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Activity not found",
		})
	}

	var existing models.Cheer
	if err := database.DB.Where("activity_id = ? AND user_id = ?", activityID, userID).First(&existing).Error; err == nil {
		database.DB.Delete(&existing)
	} else {
		cheer := models.Cheer{
			ActivityID: activityID,
			UserID:     userID,
		}
		if err := database.DB.Create(&cheer).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to add cheer",
			})
		}
	}

	database.DB.Preload("User").Preload("Cheers.User").First(&activity, activityID)
	if activity.Cheers == nil {
		activity.Cheers = []models.Cheer{}
	}

	return c.JSON(activity)
}

// LogActivity is a helper to create activity entries from other handlers
func LogActivity(squadID, userID uuid.UUID, activityType, description string, metadata map[string]interface{}) {
	activity := models.Activity{
		SquadID:     squadID,
		UserID:      userID,
		Type:        activityType,
		Description: description,
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			activity.Metadata = &s
		}
	}

	database.DB.Create(&activity)
}

func feedWindow(c *fiber.Ctx) (limit, skip int) {
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	skip, _ = strconv.Atoi(c.Query("skip", "0"))
	if limit < 1 || limit > 50 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
