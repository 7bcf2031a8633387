package handlers_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSquadCreatorIsMember(t *testing.T) {
	app := setupApp(t)
	token, userID := registerUser(t, app, "alice")

	resp := request(t, app, "POST", "/api/squads", token, fiber.Map{"name": "Early Birds"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var squad models.Squad
	decode(t, resp, &squad)

	assert.Equal(t, "Early Birds", squad.Name)
	assert.Equal(t, 10, squad.MaxMembers)
	assert.Equal(t, "mixed", squad.Category)
	assert.True(t, squad.IsPublic)
	require.Len(t, squad.Members, 1)
	assert.Equal(t, userID, squad.Members[0].UserID.String())
	assert.Equal(t, 0, squad.Members[0].Points)

	year, week := time.Now().ISOWeek()
	assert.Equal(t, week, squad.WeeklyGoal.Week)
	assert.Equal(t, year, squad.WeeklyGoal.Year)
	assert.Equal(t, 100, squad.WeeklyGoal.Target)
}

func TestJoinSquadCapacityAndDuplicate(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	carolToken, _ := registerUser(t, app, "carol")
	daveToken, _ := registerUser(t, app, "dave")
	squadID := createSquad(t, app, aliceToken, "Trio", 3)

	resp := request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Rejoining below capacity is a duplicate-membership rejection
	resp = request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Already a member", body["error"])

	resp = request(t, app, "POST", "/api/squads/"+squadID+"/join", carolToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Capacity reached; the full check fires before the member check
	resp = request(t, app, "POST", "/api/squads/"+squadID+"/join", daveToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "Squad is full", body["error"])

	resp = request(t, app, "POST", "/api/squads/"+squadID+"/join", carolToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "Squad is full", body["error"])

	var count int64
	database.DB.Model(&models.SquadMember{}).Where("squad_id = ?", squadID).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestJoinSquadLogsActivity(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, bobID := registerUser(t, app, "bob")
	squadID := createSquad(t, app, aliceToken, "Readers", 5)

	resp := request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var activity models.Activity
	require.NoError(t, database.DB.
		Where("squad_id = ? AND type = ?", squadID, "joined_squad").
		First(&activity).Error)
	assert.Equal(t, bobID, activity.UserID.String())
}

func TestLeaveSquadRules(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	squadID := createSquad(t, app, aliceToken, "Trio", 5)

	resp := request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Creator can't leave while others remain
	resp = request(t, app, "POST", "/api/squads/"+squadID+"/leave", aliceToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Transfer ownership before leaving", body["error"])

	// Non-creator leaves freely
	resp = request(t, app, "POST", "/api/squads/"+squadID+"/leave", bobToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Last member leaving deletes the squad
	resp = request(t, app, "POST", "/api/squads/"+squadID+"/leave", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = request(t, app, "GET", "/api/squads/"+squadID, aliceToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardOrdering(t *testing.T) {
	app := setupApp(t)
	aliceToken, aliceID := registerUser(t, app, "alice")
	bobToken, bobID := registerUser(t, app, "bob")
	squadID := createSquad(t, app, aliceToken, "Rivals", 5)

	resp := request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	database.DB.Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squadID, aliceID).Update("points", 40)
	database.DB.Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squadID, bobID).Update("points", 90)

	resp = request(t, app, "GET", "/api/squads/"+squadID+"/leaderboard", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var leaderboard []models.LeaderboardEntry
	decode(t, resp, &leaderboard)
	require.Len(t, leaderboard, 2)
	assert.Equal(t, "bob", leaderboard[0].Username)
	assert.Equal(t, 90, leaderboard[0].SquadPoints)
	assert.Equal(t, "alice", leaderboard[1].Username)
	assert.Equal(t, 40, leaderboard[1].SquadPoints)
}

func TestGetSquadResetsStaleWeeklyGoal(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	squadID := createSquad(t, app, token, "Stale", 5)

	// Backdate the stored week so the next read lands in a "new" week
	database.DB.Model(&models.Squad{}).Where("id = ?", squadID).
		Updates(map[string]interface{}{
			"weekly_current": 75,
			"weekly_week":    1,
			"weekly_year":    2020,
		})

	resp := request(t, app, "GET", "/api/squads/"+squadID, token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var squad models.Squad
	decode(t, resp, &squad)
	assert.Equal(t, 0, squad.WeeklyGoal.Current)
	year, week := time.Now().ISOWeek()
	assert.Equal(t, week, squad.WeeklyGoal.Week)
	assert.Equal(t, year, squad.WeeklyGoal.Year)

	// And the reset was persisted, not just rendered
	var stored models.Squad
	require.NoError(t, database.DB.First(&stored, "id = ?", squadID).Error)
	assert.Equal(t, 0, stored.WeeklyGoal.Current)
}

func TestUpdateSquadCreatorOnly(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	squadID := createSquad(t, app, aliceToken, "Locked", 5)

	resp := request(t, app, "POST", "/api/squads/"+squadID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = request(t, app, "PUT", "/api/squads/"+squadID, bobToken, fiber.Map{"name": "Hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = request(t, app, "PUT", "/api/squads/"+squadID, aliceToken, fiber.Map{
		"name":             "Renamed",
		"weeklyGoalTarget": 300,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var squad models.Squad
	decode(t, resp, &squad)
	assert.Equal(t, "Renamed", squad.Name)
	assert.Equal(t, 300, squad.WeeklyGoal.Target)
}

func TestGetSquadsFilters(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")

	mineID := createSquad(t, app, aliceToken, "Mine", 5)
	resp := request(t, app, "POST", "/api/squads", bobToken, fiber.Map{
		"name":     "Hidden",
		"isPublic": false,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// The visibility flag round-trips to storage even when false
	var hidden models.Squad
	require.NoError(t, database.DB.First(&hidden, "name = ?", "Hidden").Error)
	assert.False(t, hidden.IsPublic)

	resp = request(t, app, "GET", "/api/squads/?public=true", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var squads []models.Squad
	decode(t, resp, &squads)
	require.Len(t, squads, 1)
	assert.Equal(t, "Mine", squads[0].Name)

	resp = request(t, app, "GET", "/api/squads/?my=true", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &squads)
	require.Len(t, squads, 1)
	assert.Equal(t, "Hidden", squads[0].Name)

	// Membership filter holds up across multiple joined squads
	resp = request(t, app, "POST", "/api/squads/"+mineID+"/join", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = request(t, app, "GET", "/api/squads/?my=true", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &squads)
	require.Len(t, squads, 2)

	resp = request(t, app, "GET", "/api/squads/?my=true", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &squads)
	require.Len(t, squads, 1)
	assert.Equal(t, "Mine", squads[0].Name)
}
