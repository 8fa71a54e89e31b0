package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/config"
)

type Deps struct {
	Config   *config.Config
	Tokens   *auth.Manager
	Redis    *redis.Client
	Auth     *AuthHandler
	Accounts *AccountHandler
	Chats    *ChatHandler
	Messages *MessageHandler
	Updates  *UpdateHandler
	WS       *WSHandler
}

func NewServer(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  d.Config.ReadTimeout,
		WriteTimeout: d.Config.WriteTimeout,
		BodyLimit:    d.Config.Media.MaxUploadBytes,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
		return nil
	})

	limiter := NewRateLimiter(d.Redis, d.Config.Redis.Prefix+":rl", 10, time.Minute)
	byIP := func(c *fiber.Ctx) string { return c.IP() }

	v1 := app.Group("/v1")

	authGrp := v1.Group("/auth")
	authGrp.Post("/register", limiter.MiddlewareByKey(byIP), d.Auth.Register)
	authGrp.Post("/login", limiter.MiddlewareByKey(byIP), d.Auth.Login)

	protected := v1.Group("", JWTAuth(d.Tokens))
	protected.Post("/auth/logout", d.Auth.Logout)
	protected.Get("/auth/session", d.Auth.ValidateSession)
	protected.Delete("/auth/account", d.Auth.DeleteAccount)

	protected.Get("/accounts/:id", d.Accounts.Get)
	protected.Patch("/accounts/me", d.Accounts.UpdateProfile)
	protected.Put("/accounts/me/presence", d.Accounts.SetPresence)

	protected.Post("/chats", d.Chats.FindOrCreate)
	protected.Post("/chats/group", d.Chats.CreateGroup)
	protected.Get("/chats", d.Chats.List)
	protected.Get("/chats/:chat_id", d.Chats.Get)
	protected.Post("/chats/:chat_id/members", d.Chats.AddMember)
	protected.Delete("/chats/:chat_id/members/:account_id", d.Chats.RemoveMember)
	protected.Delete("/chats/:chat_id", d.Chats.Delete)
	protected.Get("/chats/with/:peer_id/last-message", d.Chats.LastMessage)

	protected.Post("/chats/:chat_id/messages", d.Messages.SendText)
	protected.Post("/chats/:chat_id/messages/media", d.Messages.SendMedia)
	protected.Get("/chats/:chat_id/messages", d.Messages.List)
	protected.Post("/chats/:chat_id/messages/:msg_id/seen", d.Messages.MarkSeen)
	protected.Delete("/messages/:msg_id", d.Messages.Delete)

	protected.Post("/updates", d.Updates.Post)
	protected.Get("/updates", d.Updates.ListActive)
	protected.Delete("/updates/:update_id", d.Updates.Delete)

	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/chats", websocket.New(d.WS.Chats))
	ws.Get("/chats/:chat_id/messages", websocket.New(d.WS.Messages))
	ws.Get("/updates", websocket.New(d.WS.Updates))
	ws.Get("/presence/:account_id", websocket.New(d.WS.Presence))
	ws.Get("/session", websocket.New(d.WS.Session))

	return app
}
