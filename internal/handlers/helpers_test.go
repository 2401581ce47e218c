package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nawaz1711/vibelog-pro/internal/middleware"
	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/gateway"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
	"github.com/nawaz1711/vibelog-pro/internal/services/wallet"
	"github.com/nawaz1711/vibelog-pro/internal/utils"
)

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "test-webhook-secret"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))

	return db
}

type testEnv struct {
	App *fiber.App
	DB  *gorm.DB
	GW  *gateway.GatewayService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	notifier := notify.NewNotifier(db, nil, nil)
	gw := gateway.NewGatewayService(testWebhookSecret)
	walletSvc := wallet.NewWalletService(db)

	authH := &AuthHandler{DB: db, Notifier: notifier, JWTSecret: testJWTSecret, Expires: 60}
	postH := NewPostHandler(db, notifier)
	serviceH := NewServiceHandler(db, notifier)
	projectH := NewProjectHandler(db, notifier)
	paymentH := NewPaymentHandler(db, gw, walletSvc, notifier)
	adminH := NewAdminHandler(db)
	notifH := NewNotificationHandler(db)

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/posts", postH.List)
	api.Get("/posts/trending", postH.Trending)
	api.Get("/posts/:id", postH.GetOne)
	api.Get("/services", serviceH.List)
	api.Get("/services/featured", serviceH.Featured)
	api.Get("/services/category/:category", serviceH.ByCategory)
	api.Get("/services/:id", serviceH.GetOne)
	api.Post("/payments/callback", paymentH.HandleCallback)

	protected := api.Group("/",
		middleware.JWTFromHeader(testJWTSecret),
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

	return &testEnv{App: app, DB: db, GW: gw}
}

func (e *testEnv) createUser(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()

	hashed, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: hashed,
		Role:     role,
	}
	require.NoError(t, e.DB.Create(&user).Error)

	token, err := utils.SignJWT(testJWTSecret, user.ID.String(), string(role), 60)
	require.NoError(t, err)

	return &user, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
