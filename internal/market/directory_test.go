package market

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stubClient serves a canned company list.
type stubClient struct {
	companies []Company
	err       error
}

func (s *stubClient) GetCompanyList(ctx context.Context) ([]Company, error) {
	return s.companies, s.err
}

func (s *stubClient) GetTopGainers(ctx context.Context) ([]Mover, error)  { return nil, nil }
func (s *stubClient) GetTopLosers(ctx context.Context) ([]Mover, error)   { return nil, nil }
func (s *stubClient) GetAllStocks(ctx context.Context) ([]Quote, error)   { return nil, nil }
func (s *stubClient) GetStockPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *stubClient) GetOHLC(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	return nil, nil
}

func testCompanies() []Company {
	return []Company{
		{Symbol: "NABIL", CompanyName: "Nabil Bank", SectorName: "Commercial Banks"},
		{Symbol: "NLIC", CompanyName: "Nepal Life Insurance", SectorName: "Life Insurance"},
		{Symbol: "SHIVM", CompanyName: "Shivam Cements", SectorName: "Manufacturing"},
		{Symbol: ""}, // junk rows are skipped
	}
}

func TestDirectory_LoadAndLookup(t *testing.T) {
	directory := NewDirectory(zap.NewNop())
	err := directory.Load(context.Background(), &stubClient{companies: testCompanies()})

	assert.NoError(t, err)
	assert.Equal(t, 3, directory.Len())

	company, ok := directory.Lookup("nabil") // case-insensitive
	assert.True(t, ok)
	assert.Equal(t, "Nabil Bank", company.CompanyName)

	_, ok = directory.Lookup("MISSING")
	assert.False(t, ok)
}

func TestDirectory_LoadFailure(t *testing.T) {
	directory := NewDirectory(zap.NewNop())
	err := directory.Load(context.Background(), &stubClient{err: errors.New("backend down")})

	assert.Error(t, err)
	assert.Equal(t, 0, directory.Len())
}

func TestDirectory_Search(t *testing.T) {
	directory := NewDirectory(zap.NewNop())
	assert.NoError(t, directory.Load(context.Background(), &stubClient{companies: testCompanies()}))

	// Matches symbol or company name, case-insensitively.
	results := directory.Search("life")
	assert.Len(t, results, 1)
	assert.Equal(t, "NLIC", results[0].Symbol)

	results = directory.Search("N")
	assert.Len(t, results, 3) // NABIL, NLIC and Shivam CemeNts all contain n

	// Empty query returns everything, sorted by symbol.
	results = directory.Search("")
	assert.Len(t, results, 3)
	assert.Equal(t, "NABIL", results[0].Symbol)
	assert.Equal(t, "NLIC", results[1].Symbol)
	assert.Equal(t, "SHIVM", results[2].Symbol)
}
