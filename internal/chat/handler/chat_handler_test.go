package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chathub/internal/chat/repository"
	"chathub/internal/chat/service"
	"chathub/internal/common"
	"chathub/internal/config"
	"chathub/internal/dbmysql"
	"chathub/internal/preview"
	"chathub/internal/user"
)

// noPreview keeps handler tests off the network.
type noPreview struct{}

func (noPreview) Fetch(_ context.Context, _ string) *preview.Preview { return nil }

type testServer struct {
	srv *httptest.Server
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dbmysql.Migrate(db))

	channelRepo := repository.NewChannelRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	readRepo := repository.NewReadRepository(db)
	typingRepo := repository.NewTypingRepository(db)
	userRepo := user.NewUserRepository(db)

	cnf := &config.Config{
		Typing: config.TypingConfig{VisibilitySeconds: 30, CleanupSeconds: 10},
	}
	h := NewChatHandler(
		service.NewConversationService(channelRepo, groupRepo, messageRepo, userRepo),
		service.NewMessageService(messageRepo, readRepo, channelRepo, groupRepo, userRepo, noPreview{}),
		service.NewTypingService(typingRepo, cnf),
		service.NewChannelService(channelRepo, groupRepo, userRepo),
		noPreview{},
	)

	router := mux.NewRouter()
	authed := router.NewRoute().Subrouter()
	authed.Use(common.AuthMiddleware)
	h.Register(authed)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, db: db}
}

// createUser inserts a user row and returns it with a usable bearer token.
func (ts *testServer) createUser(t *testing.T, username string) (*dbmysql.User, string) {
	t.Helper()
	u := &dbmysql.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		Status:       dbmysql.StatusOnline,
	}
	require.NoError(t, ts.db.Create(u).Error)

	token, err := common.GenerateToken(u.ID, u.Username)
	require.NoError(t, err)
	return u, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/conversations", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	_, aliceToken := ts.createUser(t, "alice")
	bob, bobToken := ts.createUser(t, "bob")

	// Alice opens a channel.
	resp, raw := ts.do(t, http.MethodPost, "/api/channels", aliceToken,
		map[string]string{"name": "general"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var channel dbmysql.Channel
	require.NoError(t, json.Unmarshal(raw, &channel))

	// Bob cannot post before joining.
	resp, raw = ts.do(t, http.MethodPost, "/api/messages", bobToken,
		map[string]interface{}{"content": "hi", "channel_id": channel.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(raw))

	resp, raw = ts.do(t, http.MethodPost, fmt.Sprintf("/api/channels/%s/join", channel.ID), bobToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = ts.do(t, http.MethodPost, "/api/messages", bobToken,
		map[string]interface{}{"content": "hi all", "channel_id": channel.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var sent struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &sent))
	require.NotEmpty(t, sent.ID)

	// Alice reads the channel and marks the message.
	resp, raw = ts.do(t, http.MethodGet, "/api/messages?channel_id="+channel.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi all", msgs[0].Content)

	resp, raw = ts.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/read", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// The conversation list reflects the read.
	resp, raw = ts.do(t, http.MethodGet, "/api/conversations", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conversations []struct {
		ID          string `json:"id"`
		UnreadCount int64  `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(raw, &conversations))
	require.Len(t, conversations, 1)
	assert.Equal(t, channel.ID, conversations[0].ID)
	assert.EqualValues(t, 0, conversations[0].UnreadCount)

	// Error mapping: a malformed destination combo is a 400.
	resp, raw = ts.do(t, http.MethodPost, "/api/messages", aliceToken,
		map[string]interface{}{"content": "x", "channel_id": channel.ID, "recipient_id": bob.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	// Unknown read target is a 404.
	resp, _ = ts.do(t, http.MethodPost, "/api/messages/nope/read", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Joining twice is a 409.
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/channels/%s/join", channel.ID), bobToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTypingOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.createUser(t, "alice")

	resp, raw := ts.do(t, http.MethodPost, "/api/typing/start", aliceToken,
		map[string]string{"channel_id": "ch-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = ts.do(t, http.MethodGet, "/api/typing?channel_id=ch-1", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var indicators []struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(raw, &indicators))
	require.Len(t, indicators, 1)
	assert.Equal(t, alice.ID, indicators[0].UserID)

	// An empty stop body clears everything.
	resp, _ = ts.do(t, http.MethodPost, "/api/typing/stop", aliceToken, map[string]string{})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = ts.do(t, http.MethodGet, "/api/typing?channel_id=ch-1", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	indicators = nil
	require.NoError(t, json.Unmarshal(raw, &indicators))
	assert.Empty(t, indicators)
}

func TestSearchOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	_, aliceToken := ts.createUser(t, "alice")
	bob, _ := ts.createUser(t, "bob")

	resp, raw := ts.do(t, http.MethodPost, "/api/messages", aliceToken,
		map[string]interface{}{"content": "release notes are ready", "recipient_id": bob.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = ts.do(t, http.MethodGet, "/api/messages/search?q=RELEASE", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "release notes are ready", msgs[0].Content)

	resp, _ = ts.do(t, http.MethodGet, "/api/messages/search", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
