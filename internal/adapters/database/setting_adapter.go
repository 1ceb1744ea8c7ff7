package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

const settingsTable = "settings"

// SettingAdapter implements the SettingRepository interface
type SettingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSettingAdapter creates a new setting adapter
func NewSettingAdapter(client *postgres.Client) repositories.SettingRepository {
	return &SettingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetAll retrieves every settings row
func (a *SettingAdapter) GetAll(ctx context.Context) ([]*entities.Setting, error) {
	query, args, err := a.db.Select("key", "value", "updated_at").
		From(settingsTable).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list settings", err)
	}
	defer rows.Close()

	var settings []*entities.Setting
	for rows.Next() {
		setting := &entities.Setting{}
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan setting", err)
		}
		settings = append(settings, setting)
	}

	return settings, rows.Err()
}
