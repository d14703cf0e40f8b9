package postgres

import (
	"context"
	"fmt"
)

// schemaDDL crea las tablas si no existen. Idempotente: la importación lo
// ejecuta en cada corrida antes de escribir.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS invoice_lines (
		sales_org             TEXT NOT NULL DEFAULT '',
		billing_document      TEXT NOT NULL,
		item                  TEXT NOT NULL,
		fiscal_year           TEXT NOT NULL DEFAULT '',
		document_type         TEXT NOT NULL DEFAULT '',
		invoice_date          DATE NOT NULL,
		bill_to_party         TEXT NOT NULL DEFAULT '',
		bill_to_party_code    TEXT NOT NULL DEFAULT '',
		bill_to_city          TEXT NOT NULL DEFAULT '',
		material              TEXT NOT NULL DEFAULT '',
		ainocular_design      TEXT NOT NULL DEFAULT '',
		ainocular_design_desc TEXT NOT NULL DEFAULT '',
		ainocular_shade       TEXT NOT NULL DEFAULT '',
		ainocular_shade_desc  TEXT NOT NULL DEFAULT '',
		loom_type             TEXT NOT NULL DEFAULT '',
		dye_type              TEXT NOT NULL DEFAULT '',
		stock_type            TEXT NOT NULL DEFAULT '',
		width_inches          NUMERIC,
		gsm                   NUMERIC,
		repeats               TEXT NOT NULL DEFAULT '',
		composition           TEXT NOT NULL DEFAULT '',
		basic_price           NUMERIC,
		billed_qty            NUMERIC,
		net_amount            NUMERIC,
		gross_amount          NUMERIC,
		discount_amount       NUMERIC,
		taxable_amount        NUMERIC,
		gst_amount            NUMERIC,
		tcs_amount            NUMERIC,
		region                TEXT NOT NULL DEFAULT '',
		agent                 TEXT NOT NULL DEFAULT '',
		broker                TEXT NOT NULL DEFAULT '',
		end_use               TEXT NOT NULL DEFAULT '',
		pattern               TEXT NOT NULL DEFAULT '',
		colour_family         TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (billing_document, item)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_date ON invoice_lines (invoice_date)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_party ON invoice_lines (bill_to_party_code)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_material ON invoice_lines (material)`,
	`CREATE TABLE IF NOT EXISTS stock_items (
		material           TEXT PRIMARY KEY,
		stock_in_meters    NUMERIC NOT NULL DEFAULT 0,
		basic_price        NUMERIC,
		lead_time_days     INT,
		replenishment_date DATE,
		ainocular_design   TEXT NOT NULL DEFAULT '',
		ainocular_shade    TEXT NOT NULL DEFAULT '',
		loom_type          TEXT NOT NULL DEFAULT '',
		dye_type           TEXT NOT NULL DEFAULT '',
		stock_type         TEXT NOT NULL DEFAULT '',
		colour             TEXT NOT NULL DEFAULT '',
		pattern            TEXT NOT NULL DEFAULT '',
		end_use            TEXT NOT NULL DEFAULT '',
		gsm                NUMERIC,
		repeats            TEXT NOT NULL DEFAULT '',
		composition        TEXT NOT NULL DEFAULT '',
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_items_meters ON stock_items (stock_in_meters)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_items_repl ON stock_items (replenishment_date)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY,
		email              TEXT NOT NULL UNIQUE,
		password_hash      TEXT NOT NULL,
		display_name       TEXT NOT NULL,
		bill_to_party_code TEXT NOT NULL DEFAULT '',
		role               TEXT NOT NULL DEFAULT 'customer',
		status             TEXT NOT NULL DEFAULT 'active',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema crea las tablas e índices que falten.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, ddl := range schemaDDL {
		if _, err := q.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres.EnsureSchema: %w", err)
		}
	}
	return nil
}
