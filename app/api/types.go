package api

import (
	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/tasks"
	"github.com/lysyi3m/product-feeds/app/template"
)

// TemplateStore is the part of template.Store the handlers use.
type TemplateStore interface {
	Get(name string) (*template.Template, error)
	List() []*template.Template
	Active() []*template.Template
	Count() int
	Load(name string) (*template.Template, error)
	Save(tmpl *template.Template) (*template.Template, error)
	Delete(name string) error
	AddMapping(name string, mapping template.FieldMapping) (template.FieldMapping, error)
	UpdateMapping(name, id string, mapping template.FieldMapping) (template.FieldMapping, error)
	DeleteMapping(name, id string) error
	AddPredefinedGoogleFields(name string) (int, error)
}

var _ TemplateStore = (*template.Store)(nil)

type Handler struct {
	templates   TemplateStore
	historyRepo database.HistoryRepository
	rateRepo    database.RateRepository
	products    tasks.ProductSource
	runner      tasks.RunnerInterface
	scheduler   tasks.TaskSchedulerInterface
	feedURL     func(fileName string) string
}

type templateSummary struct {
	Name           string                 `json:"name"`
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Type           template.FeedType      `json:"type"`
	Enabled        bool                   `json:"enabled"`
	Mappings       int                    `json:"mappings"`
	FeedURL        string                 `json:"feedUrl"`
	LastGeneration *database.HistoryEntry `json:"lastGeneration,omitempty"`
}

type rateRequest struct {
	Rate   decimal.Decimal     `json:"rate"`
	Source database.RateSource `json:"source"`
}
