package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/thewiin/aws-saas-etl/internal/classifier"
	v1 "github.com/thewiin/aws-saas-etl/internal/controller/http/v1"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"github.com/thewiin/aws-saas-etl/internal/domain/usecase"
	psqlRepo "github.com/thewiin/aws-saas-etl/internal/repository/psql"
	"github.com/thewiin/aws-saas-etl/internal/repository/rabbitmq"
	redisRepo "github.com/thewiin/aws-saas-etl/internal/repository/redis"
	s3Repo "github.com/thewiin/aws-saas-etl/internal/repository/s3"
	"github.com/thewiin/aws-saas-etl/pkg/client/psql"
	redisClientPkg "github.com/thewiin/aws-saas-etl/pkg/client/redis"
	s3ClientPkg "github.com/thewiin/aws-saas-etl/pkg/client/s3"
	"github.com/thewiin/aws-saas-etl/pkg/logger"
	"github.com/thewiin/aws-saas-etl/pkg/middleware"
)

type Config struct {
	Port string

	LogLevel  string
	LogFormat string

	RedisAddr string
	RedisDB   int

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	S3Host            string
	S3RawBucket       string
	S3ProcessedBucket string
	S3AccessKey       string
	S3SecretKey       string
	S3UseSSL          bool

	RabbitMQURL string

	JWTSecret        string
	TokenExpireHours int

	ClassifierStrategy string
	ClassifierAPIURL   string
	ClassifierAPIToken string
	TextColumns        []string
}

func loadConfig() Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	mustGetEnv := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return val
	}
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	// REDIS
	redisHost := mustGetEnv("REDIS_HOST")
	redisPort := mustGetEnv("REDIS_PORT")
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("Invalid REDIS_DB value: %v", err)
	}

	// PSQL
	psqlPort, err := strconv.Atoi(mustGetEnv("PSQL_PORT"))
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	// RABBITMQ
	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	tokenExpireHours, err := strconv.Atoi(getEnv("TOKEN_EXPIRE_HOURS", "24"))
	if err != nil {
		log.Fatalf("Invalid TOKEN_EXPIRE_HOURS value: %v", err)
	}

	var textColumns []string
	if raw := os.Getenv("TEXT_COLUMNS"); raw != "" {
		for _, col := range strings.Split(raw, ",") {
			if col = strings.TrimSpace(col); col != "" {
				textColumns = append(textColumns, col)
			}
		}
	}

	return Config{
		Port: getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RedisAddr: redisHost + ":" + redisPort,
		RedisDB:   redisDB,

		PSQLHost:     mustGetEnv("PSQL_HOST"),
		PSQLPort:     psqlPort,
		PSQLUser:     mustGetEnv("PSQL_USER"),
		PSQLPassword: mustGetEnv("PSQL_PASSWORD"),
		PSQLDBName:   mustGetEnv("PSQL_DB"),
		PSQLSSLMode:  mustGetEnv("PSQL_SSLMODE"),

		S3Host:            mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3RawBucket:       mustGetEnv("S3_RAW_BUCKET"),
		S3ProcessedBucket: mustGetEnv("S3_PROCESSED_BUCKET"),
		S3AccessKey:       mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:       mustGetEnv("S3_SECRET_KEY"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",

		RabbitMQURL: rabbitMQURL,

		JWTSecret:        mustGetEnv("JWT_SECRET"),
		TokenExpireHours: tokenExpireHours,

		ClassifierStrategy: getEnv("CLASSIFIER_STRATEGY", "lexicon"),
		ClassifierAPIURL:   os.Getenv("CLASSIFIER_API_URL"),
		ClassifierAPIToken: os.Getenv("CLASSIFIER_API_TOKEN"),
		TextColumns:        textColumns,
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	redisClient, err := redisClientPkg.NewRedisClient(ctx, redisClientPkg.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("failed to init redis client: %v", err)
	}

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.PSQLHost,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		Port:     cfg.PSQLPort,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}

	if err := db.AutoMigrate(&entity.User{}, &entity.Job{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	jobRepo := psqlRepo.NewGormJobRepo(db)
	userRepo := psqlRepo.NewGormUserRepo(db)
	statusCache := redisRepo.NewRedisRepo(redisClient)

	s3Client, err := s3ClientPkg.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL)
	if err != nil {
		log.Fatalf("failed to init s3 client: %v", err)
	}
	for _, bucket := range []string{cfg.S3RawBucket, cfg.S3ProcessedBucket} {
		if err := s3Client.EnsureBucket(ctx, bucket); err != nil {
			log.Fatalf("failed to ensure bucket %s: %v", bucket, err)
		}
	}
	store := s3Repo.NewS3Repo(s3Client)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	eventPublisher, err := rabbitmq.NewRabbitPublisher(conn, "jobs.exchange", "jobs.events")
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	clf := buildClassifier(cfg)
	transformer := usecase.NewTransformer(cfg.TextColumns)

	pipeline := usecase.NewETLPipeline(jobRepo, store, statusCache, eventPublisher, clf, transformer, cfg.S3RawBucket, cfg.S3ProcessedBucket)
	jobUC := usecase.NewJobUseCase(jobRepo, store, statusCache, pipeline, cfg.S3RawBucket)
	userUC := usecase.NewUserUseCase(userRepo, []byte(cfg.JWTSecret), time.Duration(cfg.TokenExpireHours)*time.Hour)

	jobHandler := v1.NewJobHandler(jobUC)
	authHandler := v1.NewAuthHandler(userUC)

	r := gin.Default()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: redisClient,
		Limit:       10,
		Window:      time.Second,
		KeyPrefix:   "rl:",
	})
	r.Use(rl)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		jobs := apiV1.Group("/", middleware.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
		{
			jobs.POST("/jobs", jobHandler.CreateJob)
			jobs.GET("/jobs", jobHandler.ListJobs)
			jobs.GET("/jobs/:job_id/status", jobHandler.GetStatus)
			jobs.POST("/uploads/presign", jobHandler.PresignUpload)
		}
	}

	log.Printf("ETL service listening on :%s (classifier=%s)", cfg.Port, cfg.ClassifierStrategy)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}

func buildClassifier(cfg Config) classifier.Classifier {
	switch cfg.ClassifierStrategy {
	case "remote":
		if cfg.ClassifierAPIURL == "" {
			log.Fatalf("CLASSIFIER_API_URL is required for the remote strategy")
		}
		return classifier.NewRemote(classifier.RemoteConfig{
			APIURL:   cfg.ClassifierAPIURL,
			APIToken: cfg.ClassifierAPIToken,
		})
	case "lexicon":
		return classifier.NewLexicon()
	default:
		log.Fatalf("unknown CLASSIFIER_STRATEGY: %s", cfg.ClassifierStrategy)
		return nil
	}
}
