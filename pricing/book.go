// Package pricing supplies reference prices keyed by trading date and
// symbol. The coordinator uses them for the advisory cash check and as
// the fallback when the broker reports no fill price.
package pricing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"papertrade/market"
)

var ErrUnavailable = errors.New("reference price unavailable")

// Source looks up the reference (session open) price for a symbol on a
// trading date.
type Source interface {
	Open(date, symbol string) (market.Price, error)
}

// Book is an in-memory price table, usually loaded once at startup from
// a CSV file.
type Book struct {
	prices map[string]market.Price
}

func NewBook() *Book {
	return &Book{prices: make(map[string]market.Price)}
}

func key(date, symbol string) string { return date + "|" + symbol }

func (b *Book) Set(date, symbol string, price market.Price) {
	b.prices[key(date, symbol)] = price
}

func (b *Book) Open(date, symbol string) (market.Price, error) {
	p, ok := b.prices[key(date, symbol)]
	if !ok {
		return market.Price{}, fmt.Errorf("%w: %s on %s", ErrUnavailable, symbol, date)
	}
	return p, nil
}

// LoadCSV reads a price table from a CSV file with a date,symbol,price
// header row.
func LoadCSV(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read price file header: %w", err)
	}

	book := NewBook()
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("price file line %d: %w", line, err)
		}
		price, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("price file line %d: bad price %q: %w", line, row[2], err)
		}
		book.Set(row[0], row[1], price)
	}
	return book, nil
}
