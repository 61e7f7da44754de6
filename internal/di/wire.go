//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"chathub/internal/chat/handler"
	"chathub/internal/chat/repository"
	"chathub/internal/chat/service"
	"chathub/internal/config"
	"chathub/internal/dbmongo"
	"chathub/internal/dbmysql"
	"chathub/internal/media"
	"chathub/internal/user"
)

func InitializeChatApp() (*ChatApp, error) {
	wire.Build(
		config.LoadConfig,
		dbmysql.NewMySQL,
		repository.NewChannelRepository,
		repository.NewGroupRepository,
		repository.NewMessageRepository,
		repository.NewReadRepository,
		repository.NewTypingRepository,
		user.NewUserRepository,
		user.NewUserService,
		user.NewHandler,
		ProvidePreviewFetcher,
		service.NewConversationService,
		service.NewMessageService,
		service.NewTypingService,
		service.NewChannelService,
		handler.NewChatHandler,
		wire.Struct(new(ChatApp), "*"),
	)
	return &ChatApp{}, nil
}

func InitializeMediaApp() (*MediaApp, error) {
	wire.Build(
		config.LoadConfig,
		dbmongo.NewMongoConnection,
		media.NewHTTPServer,
		wire.Struct(new(MediaApp), "*"),
	)
	return &MediaApp{}, nil
}
