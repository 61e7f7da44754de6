package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chathub/internal/chat/repository"
	"chathub/internal/config"
	"chathub/internal/dbmysql"
	"chathub/internal/preview"
	"chathub/internal/user"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dbmysql.Migrate(db))
	return db
}

type testEnv struct {
	db            *gorm.DB
	channelRepo   repository.ChannelRepository
	groupRepo     repository.GroupRepository
	messageRepo   repository.MessageRepository
	readRepo      repository.ReadRepository
	typingRepo    repository.TypingRepository
	userRepo      user.UserRepository
	conversations ConversationService
	messages      MessageService
	typing        TypingService
	channels      ChannelService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:          db,
		channelRepo: repository.NewChannelRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		readRepo:    repository.NewReadRepository(db),
		typingRepo:  repository.NewTypingRepository(db),
		userRepo:    user.NewUserRepository(db),
	}
	cnf := &config.Config{
		Typing: config.TypingConfig{VisibilitySeconds: 30, CleanupSeconds: 10},
	}
	env.conversations = NewConversationService(env.channelRepo, env.groupRepo, env.messageRepo, env.userRepo)
	env.messages = NewMessageService(env.messageRepo, env.readRepo, env.channelRepo, env.groupRepo, env.userRepo, noPreview{})
	env.typing = NewTypingService(env.typingRepo, cnf)
	env.channels = NewChannelService(env.channelRepo, env.groupRepo, env.userRepo)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *dbmysql.User {
	t.Helper()
	u := &dbmysql.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		Status:       dbmysql.StatusOnline,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) seedMessage(t *testing.T, msg *dbmysql.Message) *dbmysql.Message {
	t.Helper()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Type == "" {
		msg.Type = dbmysql.MessageText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, e.db.Create(msg).Error)
	return msg
}

func strptr(s string) *string {
	return &s
}

// noPreview is the quiet fetcher used where previews are irrelevant.
type noPreview struct{}

func (noPreview) Fetch(_ context.Context, _ string) *preview.Preview { return nil }
