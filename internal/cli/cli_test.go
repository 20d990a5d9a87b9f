package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/swuprice/internal/catalog"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/testutil"
)

func init() {
	color.NoColor = true
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// useUpstream points every endpoint at a fake serving one rare and its hyperspace printing.
func useUpstream(t *testing.T) *testutil.Upstream {
	t.Helper()
	up := testutil.NewUpstream(t)
	up.CatalogPages = [][]map[string]any{{
		testutil.CatalogEntry(1, "Gar Saxon", "Viceroy of Mandalore", model.RarityRare, false),
		testutil.CatalogEntry(2, "Gar Saxon", "Viceory of Mandalore", model.RarityRare, true),
	}}
	up.Search["Gar Saxon - Viceroy of Mandalore"] = []testutil.SearchProduct{
		{ProductID: 11, ProductName: "Gar Saxon - Viceroy of Mandalore", LineName: "Star Wars: Unlimited", SetName: "Shadows of the Galaxy", Score: 5},
	}
	up.Search["Gar Saxon - Viceroy of Mandalore (Hyperspace)"] = []testutil.SearchProduct{
		{ProductID: 12, ProductName: "Gar Saxon - Viceroy of Mandalore (Hyperspace)", LineName: "Star Wars: Unlimited", SetName: "Shadows of the Galaxy", Score: 5},
	}
	up.PricePoints[11] = []testutil.PricePointEntry{{PrintingType: "Normal", MarketPrice: testutil.Price(1)}, {PrintingType: "Foil", MarketPrice: testutil.Price(2)}}
	up.PricePoints[12] = []testutil.PricePointEntry{{PrintingType: "Normal", MarketPrice: testutil.Price(3)}, {PrintingType: "Foil", MarketPrice: testutil.Price(4)}}
	up.Rates = map[string]float64{"AUD": 2, "NZD": 1}

	t.Setenv("SWUPRICE_CATALOG_URL", up.URL)
	t.Setenv("SWUPRICE_SEARCH_URL", up.URL)
	t.Setenv("SWUPRICE_PRICE_URL", up.URL)
	t.Setenv("SWUPRICE_RATES_URL", up.URL+"/v6/latest/USD")
	t.Setenv("SWUPRICE_DELAY_UNIT", "0s")
	return up
}

func writeCorrections(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corrections.toml")
	content := "[corrections]\n\"Gar Saxon - Viceory of Mandalore\" = \"Gar Saxon - Viceroy of Mandalore\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReportCommand_JSON(t *testing.T) {
	useUpstream(t)
	out := filepath.Join(t.TempDir(), "card-list.json")

	stdout, err := runCLI(t, "report", "--quiet", "--out", out, "--corrections", writeCorrections(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Priced 2 cards")
	assert.Contains(t, stdout, "Report: 2 rows -> "+out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 2)

	// Hyperspace printing is worth more, so it leads.
	assert.Equal(t, true, rows[0]["isHyperspace"])
	assert.Equal(t, "3.00", rows[0]["marketPriceUsd"])
	assert.Equal(t, "6.50", rows[0]["marketPriceConverted"]) // floor(3*2*1.1*2)/2
	assert.Equal(t, "AUD", rows[0]["currency"])
	assert.Equal(t, float64(12), rows[0]["tcgPlayerId"])
}

func TestReportCommand_CSVAndFlagsOverrideEnv(t *testing.T) {
	useUpstream(t)
	t.Setenv("SWUPRICE_CURRENCY", "AUD")
	out := filepath.Join(t.TempDir(), "prices.csv")

	_, err := runCLI(t, "report", "-q", "--format", "csv", "--currency", "nzd", "-o", out, "--corrections", writeCorrections(t))
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "NZD", records[1][9])
	assert.Equal(t, "3.00", records[1][10]) // floor(3*1*1.1*2)/2
}

func TestBatchCommand(t *testing.T) {
	up := useUpstream(t)
	out := filepath.Join(t.TempDir(), "batch", "catalog-batch.json")

	stdout, err := runCLI(t, "batch", "-q", "--category-id", "CAT-9", "--out", out, "--corrections", writeCorrections(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batch: 5 objects in 1 batch(es)")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var req catalog.BatchUpsertRequest
	require.NoError(t, json.Unmarshal(raw, &req))

	require.Len(t, req.Batches, 1)
	item := req.Batches[0].Objects[0]
	assert.Equal(t, "#gar-saxon---viceroy-of-mandalore", item.ID)
	assert.Equal(t, "CAT-9", item.ItemData.CategoryID)
	require.Len(t, item.ItemData.Variations, 4, "corrected hyperspace name pairs with its base")
	assert.ElementsMatch(t, []string{"Gar Saxon - Viceroy of Mandalore", "Gar Saxon - Viceroy of Mandalore (Hyperspace)"}, up.SearchQueries())
}

func TestBatchCommand_MissingSiblingWarns(t *testing.T) {
	useUpstream(t)
	out := filepath.Join(t.TempDir(), "catalog-batch.json")

	// Without the correction the misspelled hyperspace record finds no base card.
	stdout, err := runCLI(t, "batch", "-q", "--out", out, "--corrections", filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "missing-hyperspace 1")
}

func TestCommands_Errors(t *testing.T) {
	useUpstream(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"report", "--format", "xml"}},
		{"bad currency", []string{"report", "--currency", "dollars"}},
		{"schedule without cron", []string{"schedule"}},
		{"schedule bad cron", []string{"schedule", "--cron", "every tuesday"}},
		{"schedule bad mode", []string{"schedule", "--cron", "@daily", "--mode", "both"}},
		{"unexpected args", []string{"report", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestReportCommand_UpstreamFailure(t *testing.T) {
	up := useUpstream(t)
	up.Rates = nil

	out := filepath.Join(t.TempDir(), "card-list.json")
	_, err := runCLI(t, "report", "-q", "--out", out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}
