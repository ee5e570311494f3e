package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/feed"
	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/transform"
	"github.com/lysyi3m/product-feeds/app/validation"
)

var _ RunnerInterface = (*Runner)(nil)

type RunnerOptions struct {
	Validation  validation.Options
	Location    *time.Location
	ChannelLink string
}

// Runner performs one generation run: it loads the catalog, snapshots the
// exchange rates, renders the template and stores the outcome in history.
type Runner struct {
	products    ProductSource
	rateRepo    database.RateRepository
	historyRepo database.HistoryRepository
	opts        RunnerOptions
	now         func() time.Time
}

func NewRunner(products ProductSource, rateRepo database.RateRepository, historyRepo database.HistoryRepository, opts RunnerOptions) *Runner {
	return &Runner{
		products:    products,
		rateRepo:    rateRepo,
		historyRepo: historyRepo,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run returns the stored history entry. A failed run is recorded with status
// error and its cause is returned as well.
func (r *Runner) Run(ctx context.Context, tmpl *template.Template) (*database.HistoryEntry, error) {
	generatedAt := r.now()
	entry := &database.HistoryEntry{
		TemplateName: tmpl.Name,
		TemplateID:   tmpl.ID,
		FeedType:     string(tmpl.Type),
		GeneratedAt:  generatedAt,
	}

	result, err := r.generate(ctx, tmpl, generatedAt)
	if err != nil {
		entry.Status = database.StatusError
		entry.Error = err.Error()
		if insertErr := r.historyRepo.Insert(entry); insertErr != nil {
			slog.Error("Failed to record failed generation", "template", tmpl.Name, "error", insertErr)
		}
		return entry, err
	}

	entry.Status = database.StatusSuccess
	if result.Skipped > 0 || result.Warnings > 0 {
		entry.Status = database.StatusWarning
	}
	entry.Accepted = result.Accepted
	entry.Skipped = result.Skipped
	entry.Warnings = result.Warnings
	entry.Document = result.Document
	entry.Reports = result.Reports

	if err := r.historyRepo.Insert(entry); err != nil {
		return entry, fmt.Errorf("failed to store history: %w", err)
	}

	return entry, nil
}

func (r *Runner) generate(ctx context.Context, tmpl *template.Template, generatedAt time.Time) (*feed.Result, error) {
	products, err := r.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	rates, err := r.rateRepo.Table()
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mp := mapper.New(transform.NewEngine(rates, r.opts.Location))
	generator := feed.NewGenerator(mp, validation.New(mp, r.opts.Validation))

	return generator.Generate(products, tmpl, feed.Options{
		ChannelLink: r.opts.ChannelLink,
		GeneratedAt: generatedAt,
	})
}
