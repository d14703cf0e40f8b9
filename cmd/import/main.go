package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/TelarIA-api/internal/application/ingest"
	"github.com/jhoicas/TelarIA-api/internal/infrastructure/excel"
	"github.com/jhoicas/TelarIA-api/internal/infrastructure/postgres"
	"github.com/jhoicas/TelarIA-api/pkg/config"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// Importador de libros de Excel a la base:
//
//	go run ./cmd/import -kind invoice -file facturacion.xlsx -dsn postgres://...
//	go run ./cmd/import -kind stock   -file existencias.xlsx
//
// Sin -dsn usa la configuración normal de la app (DATABASE_URL / DB_*).
func main() {
	var (
		file = flag.String("file", "", "ruta del libro .xlsx a importar")
		kind = flag.String("kind", "", "tipo de libro: invoice | stock")
		dsn  = flag.String("dsn", "", "connection string de PostgreSQL (opcional)")
	)
	flag.Parse()

	if *file == "" || (*kind != "invoice" && *kind != "stock") {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(logger.Config{Env: "development", Level: "info"})

	dbCfg, err := loadDBConfig(*dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de base de datos")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema de base de datos")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("abrir libro")
	}
	defer f.Close()

	uc := ingest.NewImportUseCase(
		postgres.NewTxRunner(pool),
		excel.NewInvoiceWorkbookLoader(log),
		excel.NewStockWorkbookLoader(log),
		log,
	)

	var res *ingest.ImportResult
	switch *kind {
	case "invoice":
		res, err = uc.ImportInvoices(ctx, f)
	case "stock":
		res, err = uc.ImportStock(ctx, f)
	}
	if err != nil {
		log.Fatal().Err(err).Str("kind", *kind).Msg("importación fallida")
	}

	fmt.Printf("importación %s terminada: %d filas leídas, %d descartadas, %d upserts\n",
		*kind, res.RowsRead, res.RowsSkipped, res.RowsUpserted)
}

// loadDBConfig prioriza el -dsn de la línea de comandos sobre la config de la app.
func loadDBConfig(dsn string) (config.DBConfig, error) {
	if dsn != "" {
		return config.DBConfig{DatabaseURL: dsn}, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return config.DBConfig{}, err
	}
	return cfg.DB, nil
}
