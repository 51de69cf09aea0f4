//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gochat/internal/chat/repository"
	"gochat/internal/chat/service"
	"gochat/internal/common"
	"gochat/internal/config"
	"gochat/internal/dbmysql"
	"gochat/internal/media"
	"gochat/internal/notif"
	"gochat/internal/server"
	"gochat/internal/user"
)

var storeSet = wire.NewSet(
	provideDB,
	provideOptionalMongo,
	provideAttachmentStore,
	dbmysql.NewNotificationRepository,
	user.NewUserRepository,
	repository.NewMessageRepository,
	repository.NewConversationRepository,
	repository.NewRequestRepository,
)

var serviceSet = wire.NewSet(
	provideTokenManager,
	wire.Bind(new(common.TokenValidator), new(*common.TokenManager)),
	provideCodec,
	provideChatOptions,
	user.NewUserService,
	provideUserDirectory,
	provideNotifications,
	wire.Bind(new(common.Publisher), new(*notif.NotificationService)),
	service.NewProjector,
	wire.Bind(new(service.ConversationService), new(*service.Projector)),
	service.NewChatService,
	service.NewRequestService,
)

var transportSet = wire.NewSet(
	user.NewHandler,
	user.NewGRPCHandler,
	provideChatHTTPHandler,
	provideChatGRPCHandler,
	notif.NewNotificationHandler,
	provideMediaServer,
	provideRateLimiter,
	server.NewRouter,
	server.NewGRPCServer,
)

// InitializeApplication wires the API server. The cleanup drains notifications and closes stores.
func InitializeApplication(cfg *config.Config, log *zap.Logger) (*Application, func(), error) {
	wire.Build(
		storeSet,
		serviceSet,
		transportSet,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

// InitializeDatabase is used by `chat-svc migrate`.
func InitializeDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	wire.Build(provideDB)
	return nil, nil, nil
}

// InitializeMediaServer builds the standalone attachment server. MongoDB is mandatory here.
func InitializeMediaServer(cfg *config.Config, log *zap.Logger) (*media.HTTPServer, func(), error) {
	wire.Build(provideMongo, provideStandaloneMedia)
	return nil, nil, nil
}
