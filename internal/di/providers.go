package di

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"gochat/internal/chat/handler"
	"gochat/internal/chat/service"
	"gochat/internal/common"
	"gochat/internal/config"
	"gochat/internal/crypto"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
	"gochat/internal/media"
	"gochat/internal/metrics"
	"gochat/internal/notif"
	"gochat/internal/server"
	"gochat/internal/user"
)

// Application is everything `chat-svc serve` needs to run.
type Application struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	Mongo         *dbmongo.MongoClient
	HTTPHandler   server.Handler
	GRPCServer    *grpc.Server
	Media         *media.HTTPServer
	Notifications *notif.NotificationService
}

func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := dbmysql.NewMySQL(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("closing MySQL", zap.Error(err))
			}
		}
	}
	return db, cleanup, nil
}

// provideOptionalMongo returns a nil client when MongoDB is unreachable; attachments are
// then disabled instead of failing startup.
func provideOptionalMongo(cfg *config.Config, log *zap.Logger) (*dbmongo.MongoClient, func()) {
	mc, err := dbmongo.NewMongoConnection(cfg, log)
	if err != nil {
		log.Warn("MongoDB unavailable, attachments disabled", zap.Error(err))
		return nil, func() {}
	}
	return mc, closeMongo(mc, log)
}

func provideMongo(cfg *config.Config, log *zap.Logger) (*dbmongo.MongoClient, func(), error) {
	mc, err := dbmongo.NewMongoConnection(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return mc, closeMongo(mc, log), nil
}

func closeMongo(mc *dbmongo.MongoClient, log *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Close(ctx); err != nil {
			log.Warn("closing MongoDB", zap.Error(err))
		}
	}
}

func provideAttachmentStore(mc *dbmongo.MongoClient) dbmongo.AttachmentStore {
	if mc == nil {
		return nil
	}
	return dbmongo.NewAttachmentStore(mc)
}

func provideTokenManager(cfg *config.Config) *common.TokenManager {
	return common.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
}

func provideCodec(cfg *config.Config, log *zap.Logger) *crypto.Codec {
	return crypto.NewCodec(cfg.Crypto.EncryptionKey, cfg.Crypto.PreviousKeys, log,
		crypto.WithDecryptFailureHook(metrics.DecryptFailures.Inc))
}

func provideChatOptions(cfg *config.Config) service.ChatOptions {
	return service.ChatOptions{
		MediaBaseURL: cfg.Server.MediaBaseURL,
		DefaultEmoji: cfg.Chat.DefaultEmoji,
		HistoryLimit: cfg.Chat.HistoryLimit,
	}
}

func provideUserDirectory(users user.UserService) service.UserDirectory {
	return users
}

func provideNotifications(cfg *config.Config, repo dbmysql.NotificationRepository, log *zap.Logger) (*notif.NotificationService, func()) {
	svc := notif.NewNotificationService(cfg, repo, log)
	return svc, svc.Shutdown
}

func provideRateLimiter(cfg *config.Config, log *zap.Logger) (*server.RateLimiter, func()) {
	l := server.NewRateLimiter(cfg, log)
	return l, l.Stop
}

func provideChatHTTPHandler(
	cfg *config.Config,
	chat service.ChatService,
	conversations service.ConversationService,
	requests service.RequestService,
	log *zap.Logger,
) *handler.HTTPHandler {
	return handler.NewHTTPHandler(chat, conversations, requests, cfg.Chat.MaxAttachmentBytes, log)
}

func provideChatGRPCHandler(
	cfg *config.Config,
	chat service.ChatService,
	conversations service.ConversationService,
	requests service.RequestService,
	log *zap.Logger,
) *handler.GRPCHandler {
	return handler.NewGRPCHandler(chat, conversations, requests, cfg.Chat.MaxAttachmentBytes, log)
}

// provideMediaServer yields nil when attachments are disabled so the router skips /media.
func provideMediaServer(store dbmongo.AttachmentStore, log *zap.Logger) *media.HTTPServer {
	if store == nil {
		return nil
	}
	return media.NewHTTPServer(store, log)
}

func provideStandaloneMedia(mc *dbmongo.MongoClient, log *zap.Logger) *media.HTTPServer {
	return media.NewHTTPServer(dbmongo.NewAttachmentStore(mc), log)
}
