package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookSetAndOpen(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Set("2025-06-02", "XYZ", decimal.NewFromInt(50))

	p, err := b.Open("2025-06-02", "XYZ")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(50)))
}

func TestBookMissLookups(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Set("2025-06-02", "XYZ", decimal.NewFromInt(50))

	_, err := b.Open("2025-06-02", "ABC")
	assert.ErrorIs(t, err, ErrUnavailable)

	// Same symbol, wrong date.
	_, err = b.Open("2025-06-03", "XYZ")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	content := "date,symbol,price\n" +
		"2025-06-02,XYZ,50\n" +
		"2025-06-02,ABC,120.25\n" +
		"2025-06-03,XYZ,55\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := LoadCSV(path)
	require.NoError(t, err)

	p, err := b.Open("2025-06-02", "ABC")
	require.NoError(t, err)
	assert.Equal(t, "120.25", p.String())

	p, err = b.Open("2025-06-03", "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "55", p.String())
}

func TestLoadCSVBadPrice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,symbol,price\n2025-06-02,XYZ,abc\n"), 0o644))

	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
