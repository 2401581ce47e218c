package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/nawaz1711/vibelog-pro/internal/config"
	"github.com/nawaz1711/vibelog-pro/internal/db"
	"github.com/nawaz1711/vibelog-pro/internal/handlers"
	"github.com/nawaz1711/vibelog-pro/internal/middleware"
	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/realtime"
	"github.com/nawaz1711/vibelog-pro/internal/services/gateway"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
	"github.com/nawaz1711/vibelog-pro/internal/services/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis unavailable, realtime fanout limited to this instance:", err)
		rdb = nil
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.Service{},
		&models.ServiceReview{},
		&models.Project{},
		&models.Payment{},
		&models.WalletTransaction{},
		&models.Notification{},
	); err != nil {
		log.Fatal(err)
	}

	notifier := notify.NewNotifier(gdb, hub, rdb)
	go notifier.StartExpirySweeper(time.Hour)

	gatewaySvc := gateway.NewGatewayService(cfg.WebhookSecret)
	walletSvc := wallet.NewWalletService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		Notifier:  notifier,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:             gdb,
		JWTSecret:      cfg.JWTSecret,
		Expires:        cfg.JWTExpiresMin,
		GoogleClientID: cfg.GoogleClientID,
		GoogleSecret:   cfg.GoogleSecret,
		GoogleRedirect: cfg.GoogleRedirect,
		ClientURL:      cfg.ClientURL,
	}
	postH := handlers.NewPostHandler(gdb, notifier)
	serviceH := handlers.NewServiceHandler(gdb, notifier)
	projectH := handlers.NewProjectHandler(gdb, notifier)
	paymentH := handlers.NewPaymentHandler(gdb, gatewaySvc, walletSvc, notifier)
	adminH := handlers.NewAdminHandler(gdb)
	notifH := handlers.NewNotificationHandler(gdb)
	wsH := handlers.NewWSHandler(hub, cfg.JWTSecret)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	api.Get("/posts", postH.List)
	api.Get("/posts/trending", postH.Trending)
	api.Get("/posts/:id", postH.GetOne)

	api.Get("/services", serviceH.List)
	api.Get("/services/featured", serviceH.Featured)
	api.Get("/services/category/:category", serviceH.ByCategory)
	api.Get("/services/:id", serviceH.GetOne)

	// gateway webhook, authenticated by signature instead of JWT
	api.Post("/payments/callback", paymentH.HandleCallback)

	// protected (bearer JWT)
	protected := api.Group("/",
		middleware.JWTFromHeader(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", authH.Me)
	protected.Put("/auth/profile", authH.UpdateProfile)
	protected.Post("/auth/follow/:userId", authH.Follow)
	protected.Post("/auth/unfollow/:userId", authH.Unfollow)

	protected.Post("/posts", postH.Create)
	protected.Put("/posts/:id", postH.Update)
	protected.Delete("/posts/:id", postH.Delete)
	protected.Post("/posts/:id/like", postH.Like)
	protected.Post("/posts/:id/comment", postH.AddComment)

	protected.Post("/services", middleware.RequireRoles("creator", "admin"), serviceH.Create)
	protected.Put("/services/:id", serviceH.Update)
	protected.Delete("/services/:id", serviceH.Delete)
	protected.Post("/services/:id/reviews", serviceH.AddReview)

	protected.Get("/projects", projectH.List)
	protected.Post("/projects", projectH.Create)
	protected.Get("/projects/:id", projectH.GetOne)
	protected.Put("/projects/:id", projectH.Update)
	protected.Post("/projects/:id/complete", projectH.Complete)
	protected.Post("/projects/:id/messages", projectH.AddMessage)

	protected.Post("/payments", paymentH.Create)
	protected.Get("/payments", paymentH.List)
	protected.Get("/payments/:id", paymentH.GetOne)

	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/read-all", notifH.MarkAllRead)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/users", adminH.ListUsers)
	admin.Delete("/users/:id", adminH.DeleteUser)
	admin.Get("/stats", adminH.Stats)

	// WebSocket endpoint, authenticated via token query param
	app.Get("/ws/notifications", websocket.New(wsH.Notifications))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
