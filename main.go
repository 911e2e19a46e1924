package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/beka-birhanu/reeborg-api/api"
	api_i "github.com/beka-birhanu/reeborg-api/api/i"
	"github.com/beka-birhanu/reeborg-api/api/identity"
	simulationapi "github.com/beka-birhanu/reeborg-api/api/simulation"
	"github.com/beka-birhanu/reeborg-api/config"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	"github.com/beka-birhanu/reeborg-api/infrastruture/leaderboard"
	"github.com/beka-birhanu/reeborg-api/infrastruture/lock"
	logger "github.com/beka-birhanu/reeborg-api/infrastruture/log"
	"github.com/beka-birhanu/reeborg-api/infrastruture/repo"
	"github.com/beka-birhanu/reeborg-api/infrastruture/token"
	"github.com/beka-birhanu/reeborg-api/service"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	leaderboardTTLSeconds = 0
	exploreLockExpiry     = 10 * time.Minute
)

// Global variables for dependencies
var (
	cfg                  config.Config
	mongoClient          *mongo.Client
	sqliteDB             *sql.DB
	redisClient          *redis.Client
	userRepo             i.UserRepo
	runRepo              i.RunRepo
	scoreBoard           i.Leaderboard
	exploreLocker        i.Locker
	simulationService    *service.SimulationService
	simulationController api_i.Controller
	jwtTokenizer         i.Tokenizer
	authService          i.Authenticator
	authController       api_i.Controller
	router               *api.Router
	appLogger            *logger.Logger
)

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)
	appLogger.Info("Configuration loaded")
}

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initSQLite() {
	var err error
	sqliteDB, err = repo.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Opening SQLite database %s: %v", cfg.SQLitePath, err))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Opened SQLite database %s", cfg.SQLitePath))
}

func initRepos() {
	switch cfg.DBDriver {
	case config.DBDriverSQLite:
		userRepo = repo.NewSQLiteUserRepo(sqliteDB)
		runRepo = repo.NewSQLiteRunRepo(sqliteDB)
	default:
		var err error
		userRepo, err = repo.NewUserRepo(mongoClient, cfg.DBName, "users")
		if err != nil {
			appLogger.Error(fmt.Sprintf("Creating user repository: %v", err))
			os.Exit(1)
		}
		runRepo = repo.NewRunRepo(mongoClient, cfg.DBName, "runs")
	}
	appLogger.Info("User and run repositories initialized")
}

func initRedis(ctx context.Context) {
	if cfg.RedisAddr == "" {
		appLogger.Warning("REDIS_ADDR not set, leaderboard and exploration locks disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	redisClient = client

	var err error
	scoreBoard, err = leaderboard.NewRedisLeaderboard(redisClient, "", leaderboardTTLSeconds)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating leaderboard: %v", err))
		os.Exit(1)
	}
	exploreLocker = lock.NewRedisLocker(redisClient, exploreLockExpiry)
	appLogger.Info("Connected to Redis")
}

func initSimulationService() {
	simLogger, err := logger.New("SIMULATION", config.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating simulation logger: %v", err))
		os.Exit(1)
	}

	simulationService, err = service.NewSimulationService(&service.SimulationConfig{
		RunRepo:     runRepo,
		UserRepo:    userRepo,
		Leaderboard: scoreBoard,
		Locker:      exploreLocker,
		Fetcher:     &scene.Fetcher{Logger: simLogger},
		SceneURL:    cfg.SceneURL,
		Capacity:    cfg.MaxCarrots,
		MoveDelay:   cfg.MoveDelay,
		TurnDelay:   cfg.TurnDelay,
		TraceDir:    cfg.TraceDir,
		Logger:      simLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating simulation service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Simulation service initialized")
}

func initSimulationController() {
	var err error
	simulationController, err = simulationapi.NewSimulationController(simulationService)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating simulation controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Simulation controller initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(cfg.JWTSecret, cfg.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	var err error
	authService, err = service.NewAuthService(userRepo, jwtTokenizer)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initAuthController() {
	authController = identity.NewIdentityServer(authService)
	appLogger.Info("Auth controller initialized")
}

func initRouter(t i.Tokenizer) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", cfg.HostIP, cfg.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{authController, simulationController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	// Initialize dependencies
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	initConfig()

	switch cfg.DBDriver {
	case config.DBDriverSQLite:
		initSQLite()
		defer sqliteDB.Close()
	default:
		initMongo(ctx)
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()
	}

	initRepos()
	initRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	initSimulationService()
	defer simulationService.Shutdown()
	initSimulationController()
	initJWTTokenizer()
	initAuthService()
	initAuthController()
	initRouter(jwtTokenizer)

	// Run HTTP server
	if err := router.Run(); err != nil {
		appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		os.Exit(1)
	}
}
