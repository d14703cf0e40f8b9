package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/TelarIA-api/internal/application/agent"
	"github.com/jhoicas/TelarIA-api/internal/application/auth"
	"github.com/jhoicas/TelarIA-api/internal/application/ports"
	"github.com/jhoicas/TelarIA-api/internal/application/reports"
	infraai "github.com/jhoicas/TelarIA-api/internal/infrastructure/ai"
	infrapdf "github.com/jhoicas/TelarIA-api/internal/infrastructure/pdf"
	"github.com/jhoicas/TelarIA-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/TelarIA-api/internal/interfaces/http"
	"github.com/jhoicas/TelarIA-api/pkg/config"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("llm", cfg.LLM.Provider).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema de base de datos")
	}

	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceReadRepo(pool)
	stockRepo := postgres.NewStockReadRepo(pool)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Proveedor de chat según config; Anthropic es el default.
	var chatModel ports.ChatModel
	switch cfg.LLM.Provider {
	case "gemini":
		chatModel = infraai.NewGeminiService(cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	default:
		chatModel = infraai.NewAnthropicService(cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel)
	}

	catalog := agent.BuildCatalog(agent.Deps{
		Invoices:     invoiceRepo,
		Stock:        stockRepo,
		PDFBaseURL:   cfg.Agent.InvoicePDFBaseURL,
		ExcessMonths: cfg.Agent.ExcessStockMonths,
	})
	orchestrator := agent.NewOrchestrator(chatModel, catalog, log, cfg.Agent)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	salesReportUC := reports.NewSalesReportUseCase(invoiceRepo, pdfGenerator, log)

	app := httpRouter.NewApp(cfg.App.Name)
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "TelarIA API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ChatRunner:  orchestrator,
		SalesReport: salesReportUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
