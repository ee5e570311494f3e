package database

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-feeds/app/feed"
)

type RateSource string

const (
	RateSourceAPI    RateSource = "api"
	RateSourceManual RateSource = "manual"
)

func (s RateSource) Valid() bool {
	return s == RateSourceAPI || s == RateSourceManual
}

type ExchangeRate struct {
	Base      string          `json:"baseCurrency"`
	Target    string          `json:"targetCurrency"`
	Rate      decimal.Decimal `json:"rate"`
	Source    RateSource      `json:"source"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type HistoryStatus string

const (
	StatusSuccess HistoryStatus = "success"
	StatusWarning HistoryStatus = "warning" // generated, but records were skipped or warned about
	StatusError   HistoryStatus = "error"
)

// HistoryEntry is one generation run of a template.
type HistoryEntry struct {
	ID           string              `json:"id"`
	TemplateName string              `json:"templateName"`
	TemplateID   string              `json:"templateId"`
	FeedType     string              `json:"feedType"`
	Status       HistoryStatus       `json:"status"`
	Accepted     int                 `json:"acceptedCount"`
	Skipped      int                 `json:"skippedCount"`
	Warnings     int                 `json:"warningCount"`
	Error        string              `json:"error,omitempty"`
	Document     string              `json:"-"`
	Reports      []feed.RecordReport `json:"reports,omitempty"`
	GeneratedAt  time.Time           `json:"generatedAt"`
}

// HasDocument reports whether the entry can be served as a feed.
func (e *HistoryEntry) HasDocument() bool {
	return e.Status != StatusError && e.Document != ""
}
