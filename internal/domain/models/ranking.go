package models

import "github.com/courierops/fieldtrack/pkg/uuid"

// LedgerTotals is what the external order/expense collaborators return for
// one worker over a window.
type LedgerTotals struct {
	WorkerID uuid.UUID
	Orders   int
	Revenue  float64
	Expenses float64
}

// RankingEntry is a computed leaderboard row. Never persisted.
type RankingEntry struct {
	WorkerID   uuid.UUID `json:"worker_id"`
	WorkerName string    `json:"worker_name"`
	Orders     int       `json:"orders"`
	NetProfit  float64   `json:"net_profit"`
	SalaryCost float64   `json:"salary_cost,omitempty"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
}

// WorkerInfo is the read-only view of the external worker directory used by
// the salary-amortized ranking variant.
type WorkerInfo struct {
	ID            uuid.UUID
	Name          string
	MonthlySalary float64
}
