package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chatline/backend/internal/auth"
	"github.com/chatline/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	authHandler    *AuthHandler
	userHandler    *UserHandler
	chatHandler    *ChatHandler
	messageHandler *MessageHandler
	healthHandler  *HealthHandler
	jwtManager     *auth.JWTManager
	uploadDir      string
	logger         *zap.Logger
}

// NewRouter creates a new router
func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	chatHandler *ChatHandler,
	messageHandler *MessageHandler,
	healthHandler *HealthHandler,
	jwtManager *auth.JWTManager,
	uploadDir string,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		userHandler:    userHandler,
		chatHandler:    chatHandler,
		messageHandler: messageHandler,
		healthHandler:  healthHandler,
		jwtManager:     jwtManager,
		uploadDir:      uploadDir,
		logger:         logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(chimiddleware.Compress(5))

	// Health endpoints (no auth required)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})

	// Locally stored uploads
	if rt.uploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.uploadDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Route("/users", func(r chi.Router) {
		// Signup and login (no auth required)
		r.Post("/signin", rt.authHandler.Login)
		r.Post("/auth/create", rt.authHandler.Register)
		r.Post("/auth/send-code", rt.authHandler.SendCode)

		// Profile routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.jwtManager))

			r.Get("/me", rt.userHandler.Me)
			r.Get("/get-all", rt.userHandler.GetAll)
			r.Get("/search", rt.userHandler.Search)
			r.Get("/by-nik/{nik}", rt.userHandler.GetByNik)
			r.Patch("/update-name", rt.userHandler.UpdateName)
			r.Patch("/update-nik", rt.userHandler.UpdateNik)
			r.Patch("/update-password", rt.userHandler.UpdatePassword)
			r.Patch("/update-theme", rt.userHandler.UpdateTheme)
			r.Patch("/update-image", rt.userHandler.UpdateAvatar)
			r.Delete("/delete/{id}", rt.userHandler.Delete)
		})
	})

	r.Route("/chats", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.jwtManager))

		r.Post("/create-chat", rt.chatHandler.CreateChat)
		r.Post("/send-messages/{chatId}", rt.chatHandler.SendMessage)
		r.Get("/chat-by-id/{chatId}", rt.chatHandler.GetChatByID)
		r.Patch("/chat-by-id/{chatId}", rt.chatHandler.ChangeChatByID)
		r.Get("/all-chats", rt.chatHandler.GetUserChats)
		r.Get("/messages/{chatId}", rt.chatHandler.GetChatMessages)
		r.Get("/unread-count/{chatId}", rt.chatHandler.GetUnreadCount)
		r.Get("/unread-chats", rt.chatHandler.GetUnreadChatsCount)
		r.Delete("/delete/{chatId}", rt.chatHandler.DeleteChat)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.jwtManager))

		r.Get("/", rt.messageHandler.GetUserMessages)
		r.Patch("/{messageId}", rt.messageHandler.EditMessage)
		r.Delete("/{messageId}", rt.messageHandler.DeleteMessage)
	})

	return r
}
