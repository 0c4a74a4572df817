package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/shared"
)

// Repository persists the settings row.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
	// Insert writes s only when no row exists and reports whether it did.
	Insert(ctx context.Context, s Settings) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `brand_name, logo_url, sidebar_image_url, owner_email, theme_color, about_title, about_text,
contact_phone, contact_email, show_dashboard, show_inventory, show_warehouses, show_sales, show_alerts,
show_invoices, show_reports, show_debtors, show_clients, show_settings, sidebar_order`

func args(s Settings) []any {
	return []any{s.BrandName, s.LogoURL, s.SidebarImageURL, s.OwnerEmail, s.ThemeColor, s.AboutTitle, s.AboutText,
		s.ContactPhone, s.ContactEmail, s.ShowDashboard, s.ShowInventory, s.ShowWarehouses, s.ShowSales, s.ShowAlerts,
		s.ShowInvoices, s.ShowReports, s.ShowDebtors, s.ShowClients, s.ShowSettings, strings.Join(s.SidebarOrder, ",")}
}

func scan(row pgx.Row) (Settings, error) {
	var (
		s     Settings
		order string
	)
	err := row.Scan(&s.BrandName, &s.LogoURL, &s.SidebarImageURL, &s.OwnerEmail, &s.ThemeColor, &s.AboutTitle, &s.AboutText,
		&s.ContactPhone, &s.ContactEmail, &s.ShowDashboard, &s.ShowInventory, &s.ShowWarehouses, &s.ShowSales, &s.ShowAlerts,
		&s.ShowInvoices, &s.ShowReports, &s.ShowDebtors, &s.ShowClients, &s.ShowSettings, &order, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, shared.ErrNotFound
	}
	if err != nil {
		return Settings{}, err
	}
	s.SidebarOrder = splitOrder(order)
	return s, nil
}

func splitOrder(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *pgRepository) Get(ctx context.Context) (Settings, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+`, updated_at FROM settings WHERE id = 1`))
}

func (r *pgRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	saved, err := scan(r.pool.QueryRow(ctx, `UPDATE settings SET (`+columns+`, updated_at) =
($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
WHERE id = 1
RETURNING `+columns+`, updated_at`, args(s)...))
	if err != nil {
		return Settings{}, db.MapError(err)
	}
	return saved, nil
}

func (r *pgRepository) Insert(ctx context.Context, s Settings) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO settings (id, `+columns+`)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
ON CONFLICT (id) DO NOTHING`, args(s)...)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() == 1, nil
}
