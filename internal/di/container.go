package di

import (
	"context"
	"fmt"

	"github.com/GoArmGo/BlogApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/BlogApp/internal/app"
	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/config"
	"github.com/GoArmGo/BlogApp/internal/database/client"
	"github.com/GoArmGo/BlogApp/internal/database/postgres"
	"github.com/GoArmGo/BlogApp/internal/database/storage"
	"github.com/GoArmGo/BlogApp/internal/logger"
	"github.com/GoArmGo/BlogApp/internal/rabbitmq"
	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Инициализация PostgreSQL клиента и миграций
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	gormDB, err := postgres.NewGormDB(dbClient.DB.DB, slogger)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	// 3. Инициализация хранилищ
	userStorage := storage.NewUserStorage(dbClient.DB, slogger)
	postStorage := storage.NewPostStorage(dbClient.DB, slogger)
	categoryStorage := postgres.NewGormCategoryStorage(gormDB, slogger)

	// 4. Файловое хранилище картинок (S3 / MinIO)
	fileStorage, err := minio.NewMinioClient(ctx, cfg, slogger)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	// 5. RabbitMQ: публикация и потребление задач очистки картинок
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	// 6. Аутентификация: секрет копируется в неизменяемую конфигурацию сервиса
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		rabbitMQClient.Close()
		_ = dbClient.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		rabbitMQClient.Close()
		_ = dbClient.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}

	// 7. Инициализация бизнес-логики (usecases)
	authUseCase := usecase.NewAuthUseCase(userStorage, hasher, tokens, slogger)
	postUseCase := usecase.NewPostUseCase(postStorage, fileStorage, rabbitMQClient, cfg.MaxUploadBytes, slogger)
	categoryUseCase := usecase.NewCategoryUseCase(categoryStorage, slogger)

	// 8. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		dbClient.DB,
		authUseCase,
		postUseCase,
		categoryUseCase,
		rabbitMQClient,
	)

	slogger.Info("all dependencies initialized")
	return application, nil
}
