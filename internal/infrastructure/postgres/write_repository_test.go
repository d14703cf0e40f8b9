package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
)

// fakeQuerier registra cada Exec y QueryRow; estos tests no necesitan base.
type fakeQuerier struct {
	sqls    []string
	args    [][]any
	rowSQLs []string
	failAt  int // 1-based; 0 = nunca falla
	execErr error
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	if f.failAt > 0 && len(f.sqls) == f.failAt {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("no implementado en el fake")
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.rowSQLs = append(f.rowSQLs, sql)
	return fakeRow{}
}

// fakeRow deja los destinos en su valor cero.
type fakeRow struct{}

func (fakeRow) Scan(dest ...any) error { return nil }

func TestUpsertItems_UpsertPorMaterial(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewStockWriteRepo(q)

	item := &entity.StockItem{
		Material:      "FAB-AIRJET-120",
		StockInMeters: decimal.NewFromInt(1200),
	}
	// El mismo material dos veces: la segunda pasada actualiza en sitio.
	n, err := repo.UpsertItems(context.Background(), []*entity.StockItem{item, item})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, q.sqls, 2)

	assert.Contains(t, q.sqls[0], "ON CONFLICT (material) DO UPDATE",
		"reimportar nunca duplica: el conflicto por material actualiza")
	assert.Equal(t, "FAB-AIRJET-120", q.args[0][0])
	assert.Equal(t, q.sqls[0], q.sqls[1])
}

func TestUpsertItems_ErrorDetieneYReportaProcesados(t *testing.T) {
	q := &fakeQuerier{failAt: 2, execErr: errors.New("conexión perdida")}
	repo := NewStockWriteRepo(q)

	items := []*entity.StockItem{
		{Material: "FAB-A"},
		{Material: "FAB-B"},
		{Material: "FAB-C"},
	}
	n, err := repo.UpsertItems(context.Background(), items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAB-B", "el error nombra el material que falló")
	assert.Equal(t, 1, n)
	assert.Len(t, q.sqls, 2, "tras el error no se siguen enviando filas")
}

func TestUpsertLines_UpsertPorDocumentoEItem(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewInvoiceWriteRepo(q)

	lines := []*entity.InvoiceLine{
		{BillingDocument: "91234567", Item: "10"},
		{BillingDocument: "91234567", Item: "20"},
	}
	n, err := repo.UpsertLines(context.Background(), lines)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, q.sqls, 2)

	assert.Contains(t, q.sqls[0], "ON CONFLICT (billing_document, item) DO UPDATE")
	assert.Equal(t, "91234567", q.args[0][1])
	assert.Equal(t, "10", q.args[0][2])
	assert.Equal(t, "20", q.args[1][2])
}
