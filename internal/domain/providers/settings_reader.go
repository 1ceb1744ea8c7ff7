package providers

import (
	"context"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// SettingsReader exposes the process-wide configuration snapshot. The
// snapshot is lazily refreshed by the implementation; callers never see a
// partially updated view.
type SettingsReader interface {
	Snapshot(ctx context.Context) (*entities.SettingsSnapshot, error)
}
