package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Directory is the in-memory company directory cache. It is populated once
// from the backend's company list and read by rendering and search. Reads
// and the one-time load may race across request goroutines, hence the lock.
type Directory struct {
	mu       sync.RWMutex
	bySymbol map[string]Company
	logger   *zap.Logger
}

// NewDirectory creates an empty company directory.
func NewDirectory(logger *zap.Logger) *Directory {
	return &Directory{
		bySymbol: make(map[string]Company),
		logger:   logger,
	}
}

// Load populates the directory from the backend. Companies without a symbol
// are skipped.
func (d *Directory) Load(ctx context.Context, client Client) error {
	companies, err := client.GetCompanyList(ctx)
	if err != nil {
		return fmt.Errorf("could not load company directory: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, company := range companies {
		if company.Symbol == "" {
			continue
		}
		d.bySymbol[strings.ToUpper(company.Symbol)] = company
	}
	d.logger.Info("Company directory loaded", zap.Int("count", len(d.bySymbol)))

	return nil
}

// Lookup returns the company for a ticker symbol, case-insensitively.
func (d *Directory) Lookup(symbol string) (Company, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	company, ok := d.bySymbol[strings.ToUpper(symbol)]
	return company, ok
}

// Search returns all companies whose symbol or name contains the query,
// case-insensitively, sorted by symbol. An empty query returns everything.
func (d *Directory) Search(query string) []Company {
	query = strings.ToLower(strings.TrimSpace(query))

	d.mu.RLock()
	matches := make([]Company, 0, len(d.bySymbol))
	for _, company := range d.bySymbol {
		if query == "" ||
			strings.Contains(strings.ToLower(company.Symbol), query) ||
			strings.Contains(strings.ToLower(company.CompanyName), query) {
			matches = append(matches, company)
		}
	}
	d.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Symbol < matches[j].Symbol })
	return matches
}

// Len reports how many companies are cached.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.bySymbol)
}
