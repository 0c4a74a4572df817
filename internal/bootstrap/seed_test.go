package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/masterdata/warehouses"
	"github.com/denimstock/denimstock/internal/shared"
)

type fakeUsers struct {
	count int
	err   error
}

func (f *fakeUsers) EnsureOwner(_ context.Context, username, password string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.count > 0 {
		return false, nil
	}
	if password == "" {
		return false, shared.Invalid("password", "required")
	}
	f.count++
	return true, nil
}

type fakeSettings struct{ rows int }

func (f *fakeSettings) EnsureDefault(context.Context) (bool, error) {
	if f.rows > 0 {
		return false, nil
	}
	f.rows++
	return true, nil
}

type fakeWarehouses struct{ rows []warehouses.Warehouse }

func (f *fakeWarehouses) EnsureDefault(context.Context) (warehouses.Warehouse, bool, error) {
	if len(f.rows) > 0 {
		return f.rows[0], false, nil
	}
	wh := warehouses.Warehouse{ID: 1, Name: "Main Warehouse"}
	f.rows = append(f.rows, wh)
	return wh, true, nil
}

func TestSeedIsIdempotent(t *testing.T) {
	p := Params{
		Users:         &fakeUsers{},
		Settings:      &fakeSettings{},
		Warehouses:    &fakeWarehouses{},
		AdminUsername: "admin",
		AdminPassword: "admin1234",
	}

	first, err := Seed(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, Result{OwnerCreated: true, SettingsCreated: true, WarehouseCreated: true}, first)

	second, err := Seed(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, Result{}, second)
}

func TestSeedRequiresPasswordOnEmptyDatabase(t *testing.T) {
	_, err := Seed(context.Background(), Params{Users: &fakeUsers{}, AdminUsername: "admin"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSeedStopsOnFailure(t *testing.T) {
	settings := &fakeSettings{}
	boom := errors.New("connection refused")
	_, err := Seed(context.Background(), Params{Users: &fakeUsers{err: boom}, Settings: settings})
	require.ErrorIs(t, err, boom)
	require.Zero(t, settings.rows)
}
