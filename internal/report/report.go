// Package report renders expense histories as fixed-width tables.
package report

import (
	"context"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/currency"
	"ledgerbot/internal/log"
)

const conversionFailed = " (conversion failed)"

type Builder struct {
	rates currency.Rates
	log   *log.Logger
}

func NewBuilder(rates currency.Rates, logger *log.Logger) *Builder {
	return &Builder{
		rates: rates,
		log:   logger.WithComponent(log.ComponentReport),
	}
}

// User renders one user's history with amounts converted to target.
// When the rate is unavailable every row keeps its original amount
// with a note appended; rows are never dropped.
func (b *Builder) User(ctx context.Context, records []core.Record, target string) string {
	rate, ok := b.rateFor(ctx, target)

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Date", "Category", "Amount"})

	total := decimal.Zero
	for _, r := range records {
		table.Append([]string{
			r.Date.Format(core.DateFormat),
			r.Category,
			cell(r.Amount, rate, ok, target),
		})
		total = total.Add(r.Amount)
	}
	table.SetFooter([]string{"", "Total", cell(total, rate, ok, target)})
	table.Render()
	return buf.String()
}

// Group renders a group's shared ledger with a per-person column. The
// share is converted first and divided after, so rounding happens once
// per cell.
func (b *Builder) Group(ctx context.Context, g core.Group, target string) string {
	rate, ok := b.rateFor(ctx, target)
	size := decimal.NewFromInt(int64(g.Size))

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Date", "Category", "Amount", "Per Person"})

	for _, r := range g.Expenses {
		table.Append([]string{
			r.Date.Format(core.DateFormat),
			r.Category,
			cell(r.Amount, rate, ok, target),
			shareCell(r.Amount, size, rate, ok, target),
		})
	}
	table.SetFooter([]string{
		"", "Total",
		cell(g.TotalSpent, rate, ok, target),
		shareCell(g.TotalSpent, size, rate, ok, target),
	})
	table.Render()
	return buf.String()
}

func (b *Builder) rateFor(ctx context.Context, target string) (decimal.Decimal, bool) {
	rate, ok := b.rates.Rate(ctx, core.BaseCurrency, target)
	if !ok {
		b.log.WarnContext(ctx, "Rate unavailable, reporting unconverted amounts",
			log.FieldCurrency, target)
	}
	return rate, ok
}

func cell(amount decimal.Decimal, rate decimal.Decimal, ok bool, target string) string {
	if !ok {
		return amount.StringFixed(2) + " " + core.BaseCurrency + conversionFailed
	}
	return core.Convert(amount, rate).StringFixed(2) + " " + target
}

func shareCell(amount, size decimal.Decimal, rate decimal.Decimal, ok bool, target string) string {
	if !ok {
		return amount.DivRound(size, 2).StringFixed(2) + " " + core.BaseCurrency + conversionFailed
	}
	return amount.Mul(rate).DivRound(size, 2).StringFixed(2) + " " + target
}
