package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepo reads the order and expense tables owned by the dispatch and
// accounting systems. Read-only here: the analytics side never writes them.
type LedgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepo(db *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// TotalsByWorker returns per-worker order counts, revenue and expenses over
// [from, to]. Workers with no completed orders in the window are omitted.
func (r *LedgerRepo) TotalsByWorker(ctx context.Context, from, to time.Time) ([]models.LedgerTotals, error) {
	const op = "LedgerRepo.TotalsByWorker"
	query := `
		SELECT o.worker_id,
		       COUNT(o.id),
		       COALESCE(SUM(o.revenue), 0),
		       COALESCE((SELECT SUM(e.amount) FROM expenses e
		                 WHERE e.worker_id = o.worker_id
		                   AND e.incurred_at BETWEEN $1 AND $2), 0)
		FROM orders o
		WHERE o.status = 'completed' AND o.completed_at BETWEEN $1 AND $2
		GROUP BY o.worker_id;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from, to)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var totals []models.LedgerTotals
	for rows.Next() {
		var t models.LedgerTotals
		if err := rows.Scan(&t.WorkerID, &t.Orders, &t.Revenue, &t.Expenses); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return totals, nil
}

// Workers returns the worker directory used for names and salaries.
func (r *LedgerRepo) Workers(ctx context.Context) ([]models.WorkerInfo, error) {
	const op = "LedgerRepo.Workers"
	query := `
		SELECT id, name, COALESCE(monthly_salary, 0)
		FROM workers
		ORDER BY name ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var workers []models.WorkerInfo
	for rows.Next() {
		var w models.WorkerInfo
		if err := rows.Scan(&w.ID, &w.Name, &w.MonthlySalary); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return workers, nil
}
