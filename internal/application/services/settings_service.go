package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
)

const settingsCacheKey = "outreach:settings"

// SettingsService serves point-in-time snapshots of the settings table.
// Snapshots are held in memory for the refresh interval and backed by the
// shared cache so restarted workers pick up recent values without hitting
// the database.
type SettingsService struct {
	repo            repositories.SettingRepository
	cache           providers.CacheProvider
	clock           providers.Clock
	refreshInterval time.Duration

	mu       sync.RWMutex
	snapshot *entities.SettingsSnapshot
}

// NewSettingsService creates a new settings service. The cache is optional.
func NewSettingsService(repo repositories.SettingRepository, cache providers.CacheProvider, clock providers.Clock, refreshInterval time.Duration) *SettingsService {
	if refreshInterval <= 0 {
		refreshInterval = time.Minute
	}
	return &SettingsService{
		repo:            repo,
		cache:           cache,
		clock:           clock,
		refreshInterval: refreshInterval,
	}
}

// Snapshot returns the current settings snapshot, refreshing it when stale.
// A refresh failure falls back to the previous snapshot so a settings-table
// outage does not stop the pipeline.
func (s *SettingsService) Snapshot(ctx context.Context) (*entities.SettingsSnapshot, error) {
	now := s.clock.Now()

	s.mu.RLock()
	current := s.snapshot
	s.mu.RUnlock()

	if current != nil && now.Sub(current.FetchedAt) < s.refreshInterval {
		return current, nil
	}

	fresh, err := s.load(ctx, now)
	if err != nil {
		if current != nil {
			log.Printf("Settings refresh failed, serving previous snapshot: %v", err)
			return current, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = fresh
	s.mu.Unlock()

	return fresh, nil
}

func (s *SettingsService) load(ctx context.Context, now time.Time) (*entities.SettingsSnapshot, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, settingsCacheKey); err == nil {
			var values map[string]string
			if err := json.Unmarshal(data, &values); err == nil {
				settings := make([]*entities.Setting, 0, len(values))
				for k, v := range values {
					settings = append(settings, &entities.Setting{Key: k, Value: v})
				}
				return entities.NewSettingsSnapshot(settings, now), nil
			}
		}
	}

	settings, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := entities.NewSettingsSnapshot(settings, now)

	if s.cache != nil {
		if data, err := json.Marshal(snapshot.Values()); err == nil {
			ttl := int(s.refreshInterval / time.Second)
			if cacheErr := s.cache.Set(ctx, settingsCacheKey, data, ttl); cacheErr != nil {
				log.Printf("Failed to cache settings snapshot: %v", cacheErr)
			}
		}
	}

	return snapshot, nil
}
