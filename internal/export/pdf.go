package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("export").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html"))

func funcMap() template.FuncMap {
	printer := message.NewPrinter(language.English)
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
		},
		"qty": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"inc": func(i int) int { return i + 1 },
	}
}

type salesPage struct {
	Brand       string
	Title       string
	GeneratedAt time.Time
	Report      reports.SalesReport
}

type invoicePage struct {
	Brand       string
	Invoice     invoices.Detail
	GeneratedAt time.Time
}

// SalesPDF renders the sale records of the period.
func (s *Service) SalesPDF(ctx context.Context, period reports.Period) ([]byte, error) {
	rep, err := s.reports.SalesByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	now := s.reports.Now()
	html, err := render("sales.html", salesPage{
		Brand:       s.brand(ctx),
		Title:       period.Title(now),
		GeneratedAt: now,
		Report:      rep,
	})
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderHTML(ctx, html, report.A4)
}

// InvoicePDF renders the printable invoice.
func (s *Service) InvoicePDF(ctx context.Context, id int64) ([]byte, error) {
	detail, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := render("invoice.html", invoicePage{
		Brand:       s.brand(ctx),
		Invoice:     detail,
		GeneratedAt: s.reports.Now(),
	})
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderHTML(ctx, html, report.A4)
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("export: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
