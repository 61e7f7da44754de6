package di

import (
	"gorm.io/gorm"

	"chathub/internal/chat/handler"
	"chathub/internal/config"
	"chathub/internal/dbmongo"
	"chathub/internal/media"
	"chathub/internal/preview"
	"chathub/internal/user"
)

// ChatApp is everything the chat service main needs.
type ChatApp struct {
	Config      *config.Config
	DB          *gorm.DB
	ChatHandler *handler.ChatHandler
	UserHandler *user.Handler
}

// MediaApp is everything the media server main needs.
type MediaApp struct {
	Config *config.Config
	Mongo  *dbmongo.MongoClient
	Server *media.HTTPServer
}

func ProvidePreviewFetcher(cnf *config.Config) preview.Fetcher {
	return preview.NewHTTPFetcher(cnf)
}
