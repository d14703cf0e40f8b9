package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/TelarIA-api/internal/application/auth"
	"github.com/jhoicas/TelarIA-api/internal/application/reports"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// NewApp construye la app Fiber del servidor. Sin WriteTimeout: fasthttp lo
// aplica como deadline única de escritura por conexión, y cortaría los
// streams SSE de /api/chat a mitad de turno; el tope real del turno es
// chatTurnTimeout en el handler.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:     appName,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ChatRunner  ChatRunner
	SalesReport *reports.SalesReportUseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Chat del asistente (protegido; el scoping por cliente vive dentro de las herramientas de cuenta)
	chatHandler := NewChatHandler(deps.ChatRunner, deps.Log)
	protected.Post("/chat", chatHandler.Chat)

	// Reportes (solo admin)
	reportHandler := NewReportHandler(deps.SalesReport, deps.Log)
	protected.Get("/reports/sales", AdminOnly(), reportHandler.SalesReport)
}
