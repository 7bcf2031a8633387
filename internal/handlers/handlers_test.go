package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/habitforge/habitforge-api/internal/database"
	"github.com/habitforge/habitforge-api/internal/routes"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp wires the full route surface against a fresh in-memory
// database named after the test, so tests never share state.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.DB = db
	require.NoError(t, database.Migrate())

	app := fiber.New()
	routes.Setup(app)
	return app
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerUser creates an account through the API and returns its token
// and id.
func registerUser(t *testing.T, app *fiber.App, username string) (token, id string) {
	t.Helper()

	resp := request(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token, body.User.ID
}

func createHabit(t *testing.T, app *fiber.App, token, title string) string {
	t.Helper()

	resp := request(t, app, "POST", "/api/habits", token, fiber.Map{"title": title})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Habit struct {
			ID string `json:"id"`
		} `json:"habit"`
	}
	decode(t, resp, &body)
	return body.Habit.ID
}

func createSquad(t *testing.T, app *fiber.App, token, name string, maxMembers int) string {
	t.Helper()

	resp := request(t, app, "POST", "/api/squads", token, fiber.Map{
		"name":       name,
		"maxMembers": maxMembers,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var squad struct {
		ID string `json:"id"`
	}
	decode(t, resp, &squad)
	return squad.ID
}
