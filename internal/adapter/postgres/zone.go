package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ZoneRepo struct {
	db *pgxpool.Pool
}

func NewZoneRepo(db *pgxpool.Pool) *ZoneRepo {
	return &ZoneRepo{db: db}
}

func (r *ZoneRepo) ListActive(ctx context.Context) ([]models.Zone, error) {
	const op = "ZoneRepo.ListActive"
	query := `
		SELECT id, name, center_lat, center_lng, radius_m, zone_type, active
		FROM zones
		WHERE active = true
		ORDER BY name ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.CenterLat, &z.CenterLng, &z.RadiusM, &z.ZoneType, &z.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return zones, nil
}

func (r *ZoneRepo) Get(ctx context.Context, zoneID uuid.UUID) (*models.Zone, error) {
	const op = "ZoneRepo.Get"
	query := `
		SELECT id, name, center_lat, center_lng, radius_m, zone_type, active
		FROM zones
		WHERE id = $1;`

	var z models.Zone
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, zoneID).Scan(
		&z.ID, &z.Name, &z.CenterLat, &z.CenterLng, &z.RadiusM, &z.ZoneType, &z.Active,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrZoneNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return &z, nil
}
