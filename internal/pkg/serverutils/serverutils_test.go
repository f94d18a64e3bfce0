package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"ai-learning-coach-be/internal/repository/memory"
	"ai-learning-coach-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokens(t *testing.T) {
	tokens := NewSessionTokens("secret")

	token, err := tokens.Issue("abc")
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = NewSessionTokens("other").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokens_OutliveSessionTTL(t *testing.T) {
	ttl := 300 * time.Millisecond
	repo := memory.NewSessionRepository(ttl)
	session := store.NewSession("", nil, "")
	repo.Save(session)

	tokens := NewSessionTokens("secret")
	token, err := tokens.Issue(session.ID)
	require.NoError(t, err)

	// keep the session in use well past its first ttl
	for elapsed := time.Duration(0); elapsed < 3*ttl; elapsed += ttl / 2 {
		time.Sleep(ttl / 2)
		_, alive := repo.Get(session.ID)
		require.True(t, alive)

		id, err := tokens.Parse(token)
		require.NoError(t, err, "token rejected while the session is alive")
		assert.Equal(t, session.ID, id)
	}
}

func TestJwtMiddleware(t *testing.T) {
	tokens := NewSessionTokens("secret")
	app := fiber.New()
	app.Get("/me", tokens.JwtMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(SessionIDFrom(c))
	})

	token, err := tokens.Issue("s-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"bearer header", "/me", "Bearer " + token, fiber.StatusOK},
		{"query token", "/me?token=" + token, "", fiber.StatusOK},
		{"missing", "/me", "", fiber.StatusUnauthorized},
		{"invalid", "/me", "Bearer nope", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/app", func(c *fiber.Ctx) error {
		return NewUnprocessableError("cannot read", map[string]int{"count": 0}, errors.New("bad sheet"))
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ValidateRequest(struct {
			Style string `validate:"required,learning_style"`
		}{Style: "All"})
	})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })
	app.Get("/unknown", func(c *fiber.Ctx) error { return errors.New("secret detail") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/app", 422, "cannot read"},
		{"/validation", 400, "Validation failed"},
		{"/fiber", 413, "Request Entity Too Large"},
		{"/unknown", 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Style string `validate:"required,learning_style"`
	}

	assert.NoError(t, ValidateRequest(req{Style: "한 우물형"}))

	err := ValidateRequest(req{Style: "unknown"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "learning_style", vErr.Fields["style"])

	err = ValidateRequest(req{})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "required", vErr.Fields["style"])
}
