package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revwatch/internal/schema"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(schema.DefaultRegistry(), Options{})
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile_CSV(t *testing.T) {
	p := newTestParser(t)
	path := writeTemp(t, "deals.csv", "Customer,Amount,Discount\nAcme,5000,25\nGlobex,8000,10\n")

	deals, err := p.ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, "Acme", deals[0]["customer_name"])
	assert.Equal(t, "5000", deals[0]["deal_size"])
	assert.Equal(t, "25", deals[0]["discount_percent"])
	assert.Equal(t, "DEAL_0000", deals[0]["deal_id"])
	assert.Equal(t, "DEAL_0001", deals[1]["deal_id"])
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseFile(context.Background(), "deals.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestParseFile_MissingFile(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseFiles_PartialFailure(t *testing.T) {
	p := newTestParser(t)
	good := writeTemp(t, "good.csv", "customer,amount\nAcme,5000\n")
	missing := filepath.Join(t.TempDir(), "missing.csv")

	result := p.ParseFiles(context.Background(), []string{good, missing}, 2)

	assert.Equal(t, 1, result.Loaded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, missing, result.Failures[0].Path)
	assert.NotEmpty(t, result.Failures[0].Reason)
	require.Len(t, result.Deals, 1)
	assert.Equal(t, "Acme", result.Deals[0]["customer_name"])
}

func TestParseFiles_PreservesInputOrder(t *testing.T) {
	p := newTestParser(t)
	first := writeTemp(t, "a.csv", "deal_id,customer\nA1,Alpha\n")
	second := writeTemp(t, "b.csv", "deal_id,customer\nB1,Beta\n")
	third := writeTemp(t, "c.csv", "deal_id,customer\nC1,Gamma\n")

	result := p.ParseFiles(context.Background(), []string{first, second, third}, 3)

	require.Len(t, result.Deals, 3)
	assert.Equal(t, "A1", result.Deals[0]["deal_id"])
	assert.Equal(t, "B1", result.Deals[1]["deal_id"])
	assert.Equal(t, "C1", result.Deals[2]["deal_id"])
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "deal_value", normalizeHeader(" Deal Value "))
	assert.Equal(t, "disc_%", normalizeHeader("Disc %"))
	assert.Equal(t, "customer", normalizeHeader("CUSTOMER"))
}
