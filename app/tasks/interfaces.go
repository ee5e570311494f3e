package tasks

import (
	"context"

	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to queue feed generation.
//
//	scheduler := NewScheduler(store, historyRepo, runner, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	task, err := scheduler.EnqueueTemplate(tmpl.Name)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTemplate(name string) (TaskInterface, error)
}

// ProductSource supplies the catalog for a generation run.
type ProductSource interface {
	Load(ctx context.Context) ([]record.Record, error)
}

var _ ProductSource = record.FileSource{}

// RunnerInterface generates a template's feed and records the run.
type RunnerInterface interface {
	Run(ctx context.Context, tmpl *template.Template) (*database.HistoryEntry, error)
}

// TemplateSource is the read side of template.Store used by tasks.
type TemplateSource interface {
	Get(name string) (*template.Template, error)
	Active() []*template.Template
}

var _ TemplateSource = (*template.Store)(nil)
