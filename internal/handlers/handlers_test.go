package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"uk.co.dudmesh.nevermore/internal/poet"
	"uk.co.dudmesh.nevermore/internal/service/chat"
	"uk.co.dudmesh.nevermore/internal/service/connection"
	"uk.co.dudmesh.nevermore/internal/service/user"
	"uk.co.dudmesh.nevermore/internal/store"
)

// newTestServer wires the full stack against a throwaway database, with
// the poet running on templates only.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	bard, err := poet.New(context.Background(), "", 1)
	if err != nil {
		t.Fatalf("creating poet: %v", err)
	}

	users := user.New(st, bard, "test-secret")
	gate := connection.NewGate(st, connection.NewLedger(st, 5, 120*time.Second), bard)
	chatService := chat.New(st)

	server := echo.New()
	server.POST("/register", Register(users))
	server.POST("/login", Login(users))
	server.GET("/users", ListUsers(users))
	server.POST("/attempt-connection", AttemptConnection(gate))
	server.GET("/connections/:userID", Connections(users, chatService), RequireUser(users))
	server.POST("/send-message", SendMessage(chatService))
	server.GET("/messages/:userID/:targetUsername", Messages(users, chatService))
	return server
}

func doRequest(t *testing.T, server *echo.Echo, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodeArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	body := []map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func registerUser(t *testing.T, server *echo.Echo, username string, answers []string) string {
	t.Helper()
	rec := doRequest(t, server, http.MethodPost, "/register", map[string]interface{}{
		"username":  username,
		"password":  "nevermore",
		"questions": []string{"first pet?", "first street?", "mother's maiden name?"},
		"answers":   answers,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("registering %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	return decodeObject(t, rec)["user_id"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/register", map[string]interface{}{
		"username":  "raven",
		"password":  "nevermore",
		"questions": []string{"q1", "q2", "q3"},
		"answers":   []string{"sea", "kingdom", "tomb"},
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)

	body := decodeObject(t, rec)
	assert.NotEmpty(body["user_id"])
	assert.NotEmpty(body["poem"])

	t.Run("duplicate username", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/register", map[string]interface{}{
			"username":  "raven",
			"password":  "other",
			"questions": []string{"q1", "q2", "q3"},
			"answers":   []string{"a", "b", "c"},
		}, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed arity", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/register", map[string]interface{}{
			"username":  "usher",
			"password":  "house",
			"questions": []string{"q1", "q2"},
			"answers":   []string{"a", "b"},
		}, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestUsersEndpointHidesRiddle(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})
	registerUser(t, server, "lenore", []string{"clock", "bell", "crypt"})

	rec := doRequest(t, server, http.MethodGet, "/users", nil, nil)
	assert.Equal(http.StatusOK, rec.Code)

	users := decodeArray(t, rec)
	assert.Len(users, 2)
	for _, user := range users {
		assert.NotEmpty(user["id"])
		assert.NotEmpty(user["username"])
		assert.NotEmpty(user["poem"])
	}
	assert.NotContains(rec.Body.String(), "answers")
	assert.NotContains(rec.Body.String(), "questions")
	assert.NotContains(rec.Body.String(), "kingdom")
}

func TestFirstAttemptUnlocksChat(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})
	lenoreID := registerUser(t, server, "lenore", []string{"clock", "bell", "crypt"})

	rec := doRequest(t, server, http.MethodPost, "/attempt-connection", map[string]interface{}{
		"target_username":  "lenore",
		"current_username": "raven",
		"answers":          []string{"clock", "bell", "crypt"},
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)

	body := decodeObject(t, rec)
	assert.Equal(true, body["success"])
	assert.Equal(float64(3), body["correct_answers"])
	assert.NotEmpty(body["cryptic_message"])

	rec = doRequest(t, server, http.MethodPost, "/send-message", map[string]interface{}{
		"content":          "is it truly you?",
		"target_username":  "lenore",
		"current_username": "raven",
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)

	message := decodeObject(t, rec)
	assert.Equal("raven", message["sender"])
	assert.Equal("is it truly you?", message["content"])
	assert.NotEmpty(message["timestamp"])

	rec = doRequest(t, server, http.MethodGet, "/messages/"+lenoreID+"/raven", nil, nil)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Len(decodeArray(t, rec), 1)
}

func TestRepeatedFailuresTriggerCooldown(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})
	registerUser(t, server, "lenore", []string{"clock", "bell", "crypt"})

	attempt := map[string]interface{}{
		"target_username":  "lenore",
		"current_username": "raven",
		"answers":          []string{"clock", "bell", "wrong"},
	}

	for i := 0; i < 5; i++ {
		rec := doRequest(t, server, http.MethodPost, "/attempt-connection", attempt, nil)
		assert.Equal(http.StatusOK, rec.Code)
		body := decodeObject(t, rec)
		assert.Equal(false, body["success"])
		assert.Equal(float64(2), body["correct_answers"])
		assert.NotEmpty(body["message"])
	}

	rec := doRequest(t, server, http.MethodPost, "/attempt-connection", attempt, nil)
	assert.Equal(http.StatusTooManyRequests, rec.Code)

	body := decodeObject(t, rec)
	assert.NotEmpty(body["detail"])
	remaining := body["retry_after_seconds"].(float64)
	assert.Greater(remaining, float64(0))
	assert.LessOrEqual(remaining, float64(120))
}

func TestAttemptValidation(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})

	t.Run("unknown target", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/attempt-connection", map[string]interface{}{
			"target_username":  "ghost",
			"current_username": "raven",
			"answers":          []string{"a", "b", "c"},
		}, nil)
		assert.Equal(http.StatusNotFound, rec.Code)
	})

	t.Run("wrong arity", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/attempt-connection", map[string]interface{}{
			"target_username":  "raven",
			"current_username": "raven",
			"answers":          []string{"a", "b"},
		}, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestSendMessageValidation(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	ravenID := registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})
	registerUser(t, server, "lenore", []string{"clock", "bell", "crypt"})

	t.Run("no connection", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/send-message", map[string]interface{}{
			"content":          "hello?",
			"target_username":  "lenore",
			"current_username": "raven",
		}, nil)
		assert.Equal(http.StatusNotFound, rec.Code)
	})

	// Unlock the pair, then check empty content is still rejected and
	// leaves the log untouched.
	rec := doRequest(t, server, http.MethodPost, "/attempt-connection", map[string]interface{}{
		"target_username":  "lenore",
		"current_username": "raven",
		"answers":          []string{"clock", "bell", "crypt"},
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)

	t.Run("empty content", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/send-message", map[string]interface{}{
			"content":          "   ",
			"target_username":  "lenore",
			"current_username": "raven",
		}, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)

		rec = doRequest(t, server, http.MethodGet, "/messages/"+ravenID+"/lenore", nil, nil)
		assert.Equal(http.StatusOK, rec.Code)
		assert.Empty(decodeArray(t, rec))
	})
}

func TestMessagesEndpointUnknownUser(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	ravenID := registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})

	rec := doRequest(t, server, http.MethodGet, "/messages/nobody/raven", nil, nil)
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/messages/"+ravenID+"/nobody", nil, nil)
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestLoginAndConnections(t *testing.T) {
	assert := assert.New(t)
	server := newTestServer(t)

	ravenID := registerUser(t, server, "raven", []string{"sea", "kingdom", "tomb"})
	registerUser(t, server, "lenore", []string{"clock", "bell", "crypt"})

	rec := doRequest(t, server, http.MethodPost, "/attempt-connection", map[string]interface{}{
		"target_username":  "lenore",
		"current_username": "raven",
		"answers":          []string{"clock", "bell", "crypt"},
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)

	t.Run("bad password", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/login", map[string]interface{}{
			"username": "raven",
			"password": "wrong",
		}, nil)
		assert.Equal(http.StatusUnauthorized, rec.Code)
	})

	rec = doRequest(t, server, http.MethodPost, "/login", map[string]interface{}{
		"username": "raven",
		"password": "nevermore",
	}, nil)
	assert.Equal(http.StatusOK, rec.Code)
	token := decodeObject(t, rec)["token"].(string)
	assert.NotEmpty(token)

	t.Run("without token", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/connections/"+ravenID, nil, nil)
		assert.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("with token", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/connections/"+ravenID, nil, map[string]string{
			echo.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(http.StatusOK, rec.Code)
		partners := decodeArray(t, rec)
		assert.Len(partners, 1)
		assert.Equal("lenore", partners[0]["username"])
	})

	t.Run("token for someone else", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/login", map[string]interface{}{
			"username": "lenore",
			"password": "nevermore",
		}, nil)
		assert.Equal(http.StatusOK, rec.Code)
		lenoreToken := decodeObject(t, rec)["token"].(string)

		rec = doRequest(t, server, http.MethodGet, "/connections/"+ravenID, nil, map[string]string{
			echo.HeaderAuthorization: "Bearer " + lenoreToken,
		})
		assert.Equal(http.StatusForbidden, rec.Code)
	})
}
