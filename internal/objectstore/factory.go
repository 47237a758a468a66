// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package objectstore

import (
	"fmt"

	"github.com/ManuGH/callvault/internal/config"
)

// Open builds the configured backend wrapped in the resilience guard.
func Open(cfg config.ObjectStoreConfig) (*Resilient, error) {
	var (
		inner Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendAzure:
		inner, err = NewAzure(AzureOptions{
			Account:          cfg.Azure.Account,
			Container:        cfg.Azure.Container,
			ConnectionString: cfg.Azure.ConnectionString,
			TenantID:         cfg.Azure.TenantID,
			ClientID:         cfg.Azure.ClientID,
			ClientSecret:     cfg.Azure.ClientSecret,
			Endpoint:         cfg.Azure.Endpoint,
		})
	case config.BackendBadger:
		inner, err = OpenBadger(cfg.Badger.Dir)
	case config.BackendFS, "":
		inner, err = NewFS(cfg.FS.Root)
	default:
		return nil, fmt.Errorf("objectstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewResilient(inner, ResilientOptions{
		Timeout:          cfg.Timeout,
		RPS:              cfg.RPS,
		Burst:            cfg.Burst,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	}), nil
}
