package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/realtime-chat/middleware/ratelimit"
	"github.com/example/realtime-chat/modules/api"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/cache"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/example/realtime-chat/modules/realtime"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Realtime Chat ===")

	production := getEnv("APP_ENV", "development") == "production"
	redisAddr := getEnv("REDIS_ADDR", "")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = getEnv("JWT_SECRET_KEY", jwtConfig.SecretKey)
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)
	jwtConfig.AccessTokenDuration = getEnvDuration("JWT_ACCESS_TOKEN_TTL", jwtConfig.AccessTokenDuration)
	jwtConfig.RefreshTokenDuration = getEnvDuration("JWT_REFRESH_TOKEN_TTL", jwtConfig.RefreshTokenDuration)
	if production && jwtConfig.SecretKey == auth.DefaultJWTConfig().SecretKey {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	authModule := auth.NewModule(auth.Config{
		DBPath:  getEnv("AUTH_DB_PATH", "auth.db"),
		DBDebug: getEnvBool("DB_DEBUG", false),
		JWT:     jwtConfig,
	})
	chatModule := chat.NewModule(chat.Config{
		DBPath:  getEnv("CHAT_DB_PATH", "chat.db"),
		DBDebug: getEnvBool("DB_DEBUG", false),
	})
	realtimeModule := realtime.NewModule()
	apiModule := api.NewModule(api.Config{
		Port:               getEnv("PORT", "3000"),
		Production:         production,
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		WSRequireAuth:      getEnvBool("WS_REQUIRE_AUTH", true),
	})
	apiModule.SetHub(realtimeModule.Hub())

	// Redis backs the profile cache and the auth rate limits. Both are
	// optional so the app runs on SQLite alone.
	if redisAddr != "" {
		cacheModule := cache.NewModule(cache.Config{
			RedisAddr:     redisAddr,
			RedisPassword: redisPassword,
			Prefix:        "chat:profile:",
			TTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		})
		authModule.SetCache(cacheModule.Cache())

		limit := getEnvInt("RATE_LIMIT", 10)
		window := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
		rateLimiter := ratelimit.New(
			ratelimit.WithRedisAddr(redisAddr),
			ratelimit.WithRedisPassword(redisPassword),
			ratelimit.WithDefaultLimit(limit, window),
			ratelimit.WithRouteLimit(api.RouteRegister, limit, window),
			ratelimit.WithRouteLimit(api.RouteLogin, limit, window),
		)
		apiModule.SetRateLimiter(rateLimiter)

		app.Register(cacheModule)
		app.Register(rateLimiter)
	}

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(authModule)     // Provides identity services
	app.Register(chatModule)     // Depends on auth for user profiles
	app.Register(realtimeModule) // Owns the websocket hub
	app.Register(apiModule)      // Depends on auth and chat

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(getEnv("PORT", "3000"), redisAddr != "")

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port string, redisEnabled bool) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/users            - Register a new user")
	log.Println("  POST   /api/v1/users/login      - Login and get tokens")
	log.Println("  POST   /api/v1/users/refresh    - Refresh access token")
	log.Println("  GET    /health                  - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/users?search=    - Search users")
	log.Println("  POST   /api/v1/chats            - Open or create a 1:1 chat")
	log.Println("  GET    /api/v1/chats            - List chats")
	log.Println("  POST   /api/v1/chats/group      - Create a group chat")
	log.Println("  PUT    /api/v1/chats/rename     - Rename a chat")
	log.Println("  PUT    /api/v1/chats/add        - Add a group member")
	log.Println("  PUT    /api/v1/chats/remove     - Remove a group member")
	log.Println("  POST   /api/v1/messages         - Send a message")
	log.Println("  GET    /api/v1/messages/:chatId - List messages")
	log.Println("")
	log.Printf("WebSocket: ws://localhost:%s/ws?token=<access token>", port)
	log.Printf("Redis cache and rate limiting enabled: %v", redisEnabled)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as time.Duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
