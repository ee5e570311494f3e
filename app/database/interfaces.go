package database

import (
	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-feeds/app/transform"
)

type RateRepository interface {
	Upsert(base, target string, rate decimal.Decimal, source RateSource) (*ExchangeRate, error)
	Get(base, target string) (*ExchangeRate, error)
	List() ([]ExchangeRate, error)
	Delete(base, target string) (bool, error)
	Table() (transform.RateTable, error)
}

type HistoryRepository interface {
	Insert(entry *HistoryEntry) error
	Get(id string) (*HistoryEntry, error)
	List(templateName string, limit int) ([]HistoryEntry, error)
	Latest(templateName string) (*HistoryEntry, error)
	LatestSuccessful(templateName string) (*HistoryEntry, error)
	Delete(id string) (bool, error)
}
