package routes

import (
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kalwarein/edu-harmony-link/internal/config"
	"github.com/Kalwarein/edu-harmony-link/internal/events"
	"github.com/Kalwarein/edu-harmony-link/internal/handlers"
	"github.com/Kalwarein/edu-harmony-link/internal/middleware"
	"github.com/Kalwarein/edu-harmony-link/internal/repository"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
	chatws "github.com/Kalwarein/edu-harmony-link/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, bus *events.Bus, hub *chatws.Hub) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	directMessageRepo := repository.NewDirectMessageRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	pushSubscriptionRepo := repository.NewPushSubscriptionRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	adminService := services.NewAdminService(services.AdminPasswords{
		Principal:   cfg.AdminPrincipalPassword,
		Teacher:     cfg.AdminTeacherPassword,
		Coordinator: cfg.AdminCoordinatorPassword,
		ParentRep:   cfg.AdminParentRepPassword,
	})
	pushNotifier := services.NewPushNotifier(pushSubscriptionRepo, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber)
	chatService := services.NewChatService(db, conversationRepo, directMessageRepo, profileRepo, storageService, bus)
	broadcastService := services.NewBroadcastService(broadcastRepo, profileRepo, storageService, bus)
	notificationService := services.NewNotificationService(notificationRepo, pushNotifier, bus)
	feedService := services.NewFeedService(postRepo, adminService)

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileRepo, storageService)
	contactsHandler := handlers.NewContactsHandler(profileRepo)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)
	broadcastHandler := handlers.NewBroadcastHandler(broadcastService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	feedHandler := handlers.NewFeedHandler(feedService, storageService)
	adminHandler := handlers.NewAdminHandler(adminService, userRepo, cfg.JWTSecret)
	pushHandler := handlers.NewPushHandler(pushSubscriptionRepo, pushNotifier)

	api := app.Group("/api")

	// brute-force protection on credential endpoints
	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	})

	auth := api.Group("/auth")
	auth.Post("/register", loginLimiter, authHandler.Register)
	auth.Post("/login", loginLimiter, authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Get("/profile", profileHandler.GetProfile)
	users.Put("/profile", profileHandler.UpdateProfile)
	users.Post("/profile/avatar", profileHandler.UploadAvatar)

	authProtected.Get("/contacts", contactsHandler.ListContacts)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.StartConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Get("/:id/unread-count", chatHandler.GetUnreadCount)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	broadcast := authProtected.Group("/messages")
	broadcast.Get("", broadcastHandler.ListMessages)
	broadcast.Post("", broadcastHandler.SendMessage)
	broadcast.Delete("/:id", broadcastHandler.DeleteMessage)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Delete("/:id", notificationHandler.Delete)
	notifications.Post("", middleware.AdminRequired(adminService, services.PermSendAlerts), notificationHandler.Create)

	posts := authProtected.Group("/posts")
	posts.Get("", feedHandler.ListPosts)
	posts.Post("", middleware.AdminRequired(adminService, services.PermCreatePosts), feedHandler.CreatePost)
	posts.Delete("/:id", middleware.AdminRequired(adminService, services.PermCreatePosts), feedHandler.DeletePost)

	admin := api.Group("/admin")
	admin.Get("/levels", adminHandler.ListLevels)
	admin.Post("/login", loginLimiter, middleware.AuthRequired(cfg.JWTSecret), adminHandler.Login)

	push := authProtected.Group("/push")
	push.Get("/vapid-key", pushHandler.VAPIDKey)
	push.Post("/subscribe", pushHandler.Subscribe)
	push.Post("/unsubscribe", pushHandler.Unsubscribe)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
