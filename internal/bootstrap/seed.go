// Package bootstrap seeds the rows a fresh database needs before the API is
// usable: the first owner account, the settings row and the main warehouse.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/denimstock/denimstock/internal/masterdata/warehouses"
)

// OwnerSeeder creates the first owner account on an empty users table.
type OwnerSeeder interface {
	EnsureOwner(ctx context.Context, username, password string) (bool, error)
}

// SettingsSeeder inserts the default settings row.
type SettingsSeeder interface {
	EnsureDefault(ctx context.Context) (bool, error)
}

// WarehouseSeeder inserts the default warehouse.
type WarehouseSeeder interface {
	EnsureDefault(ctx context.Context) (warehouses.Warehouse, bool, error)
}

// Params groups the seeders and the owner credentials.
type Params struct {
	Users         OwnerSeeder
	Settings      SettingsSeeder
	Warehouses    WarehouseSeeder
	AdminUsername string
	AdminPassword string
	Logger        *slog.Logger
}

// Result reports which rows were created.
type Result struct {
	OwnerCreated     bool
	SettingsCreated  bool
	WarehouseCreated bool
}

// Seed runs every seeder. Each step is idempotent so Seed runs on every boot.
func Seed(ctx context.Context, p Params) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	var err error

	if p.Users != nil {
		res.OwnerCreated, err = p.Users.EnsureOwner(ctx, p.AdminUsername, p.AdminPassword)
		if err != nil {
			return res, fmt.Errorf("bootstrap: owner: %w", err)
		}
		if res.OwnerCreated {
			logger.Info("owner account created", slog.String("username", p.AdminUsername))
		}
	}
	if p.Settings != nil {
		res.SettingsCreated, err = p.Settings.EnsureDefault(ctx)
		if err != nil {
			return res, fmt.Errorf("bootstrap: settings: %w", err)
		}
	}
	if p.Warehouses != nil {
		wh, created, err := p.Warehouses.EnsureDefault(ctx)
		if err != nil {
			return res, fmt.Errorf("bootstrap: warehouse: %w", err)
		}
		res.WarehouseCreated = created
		if created {
			logger.Info("default warehouse created", slog.Int64("warehouse_id", wh.ID), slog.String("name", wh.Name))
		}
	}
	return res, nil
}
