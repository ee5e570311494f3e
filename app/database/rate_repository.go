package database

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-feeds/app/transform"
)

var _ RateRepository = (*RateRepo)(nil)

var (
	ErrInvalidRate     = errors.New("exchange rate must be positive")
	ErrInvalidCurrency = errors.New("currency must be a three letter code")
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

type RateRepo struct {
	db *DB
}

func NewRateRepository(db *DB) *RateRepo {
	return &RateRepo{db: db}
}

func normalizePair(base, target string) (string, string, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	target = strings.ToUpper(strings.TrimSpace(target))
	if !currencyCode.MatchString(base) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCurrency, base)
	}
	if !currencyCode.MatchString(target) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCurrency, target)
	}
	return base, target, nil
}

func (r *RateRepo) Upsert(base, target string, rate decimal.Decimal, source RateSource) (*ExchangeRate, error) {
	base, target, err := normalizePair(base, target)
	if err != nil {
		return nil, err
	}
	if !rate.IsPositive() {
		return nil, ErrInvalidRate
	}
	if !source.Valid() {
		source = RateSourceManual
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(`
		INSERT INTO exchange_rates (base_currency, target_currency, rate, source, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (base_currency, target_currency) DO UPDATE SET
			rate = excluded.rate,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, base, target, rate.String(), string(source), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert exchange rate: %w", err)
	}

	return &ExchangeRate{
		Base:      base,
		Target:    target,
		Rate:      rate,
		Source:    source,
		UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC(),
	}, nil
}

// Get returns nil when the pair is not stored.
func (r *RateRepo) Get(base, target string) (*ExchangeRate, error) {
	base, target, err := normalizePair(base, target)
	if err != nil {
		return nil, err
	}

	rate, err := scanRate(r.db.QueryRow(`
		SELECT base_currency, target_currency, rate, source, updated_at
		FROM exchange_rates
		WHERE base_currency = ? AND target_currency = ?
	`, base, target))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return rate, nil
}

func (r *RateRepo) List() ([]ExchangeRate, error) {
	rows, err := r.db.Query(`
		SELECT base_currency, target_currency, rate, source, updated_at
		FROM exchange_rates
		ORDER BY base_currency, target_currency
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []ExchangeRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate row: %w", err)
		}
		rates = append(rates, *rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rate rows: %w", err)
	}

	return rates, nil
}

func (r *RateRepo) Delete(base, target string) (bool, error) {
	base, target, err := normalizePair(base, target)
	if err != nil {
		return false, err
	}

	res, err := r.db.Exec(`DELETE FROM exchange_rates WHERE base_currency = ? AND target_currency = ?`, base, target)
	if err != nil {
		return false, fmt.Errorf("failed to delete exchange rate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete exchange rate: %w", err)
	}

	return n > 0, nil
}

// Table snapshots all stored rates for one generation run.
func (r *RateRepo) Table() (transform.RateTable, error) {
	rates, err := r.List()
	if err != nil {
		return nil, err
	}

	table := make(transform.RateTable, len(rates))
	for _, rate := range rates {
		table.Set(rate.Base, rate.Target, rate.Rate.InexactFloat64())
	}

	return table, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRate(row rowScanner) (*ExchangeRate, error) {
	var rate ExchangeRate
	var source string
	var updatedAt int64

	if err := row.Scan(&rate.Base, &rate.Target, &rate.Rate, &source, &updatedAt); err != nil {
		return nil, err
	}

	rate.Source = RateSource(source)
	rate.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &rate, nil
}
