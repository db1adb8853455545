package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
	"bcn-hostel-prices/internal/storage"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestQuoteCommand(t *testing.T) {
	out := run(t, "quote", "--type", "privado", "--adults", "2", "101")
	assert.Contains(t, out, "101.00")
	assert.Contains(t, out, "80.80")
	assert.Contains(t, out, "calculado")

	out = run(t, "quote", "--type", "hibrido", "--adults", "1", "70", "60")
	assert.Contains(t, out, "60.00")
	assert.NotContains(t, out, "Privado")
	quoteFlags.adults = 2
}

func TestAnalyzeWindow(t *testing.T) {
	defer func() { analyzeFlags.date, analyzeFlags.start, analyzeFlags.end = "today", "", "" }()

	analyzeFlags.date = "2025-03-11"
	w, err := analyzeWindow()
	require.NoError(t, err)
	assert.False(t, w.IsRange())
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), w.Start)

	analyzeFlags.start = "2025-03-11"
	w, err = analyzeWindow()
	require.NoError(t, err)
	assert.Equal(t, 8, w.Days())

	analyzeFlags.end = "2025-03-01"
	_, err = analyzeWindow()
	assert.Error(t, err)
}

func TestResolveHostel(t *testing.T) {
	catalog := hostels.NewCatalog([]hostels.Hostel{
		{Name: "Hostal Ramos", Category: hostels.Private, URL: "https://www.booking.com/hotel/es/hostal-ramos.html"},
		{Name: "Generator Barcelona", Category: hostels.Shared, URL: "https://www.booking.com/hotel/es/generator.html"},
	})

	i, h, err := resolveHostel(catalog, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, "Generator Barcelona", h.Name)

	i, _, err = resolveHostel(catalog, "hostal ramos")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, _, err = resolveHostel(catalog, "9")
	assert.Error(t, err)
}

func TestHostelsCommands(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hostels.json")
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(cfgFile, "hostels_file: "+file+"\n"))

	exec := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	exec("hostels", "reset")
	defaults := len(hostels.Defaults())

	exec("hostels", "add", "Test Hostel", "Compartido", "https://www.booking.com/hotel/es/test.html")
	catalog, _, err := hostels.OpenCatalog(file)
	require.NoError(t, err)
	assert.Equal(t, defaults+1, catalog.Len())

	exec("hostels", "edit", "Test Hostel", "--type", "hibrido")
	catalog, _, err = hostels.OpenCatalog(file)
	require.NoError(t, err)
	_, h, err := catalog.Find("Test Hostel")
	require.NoError(t, err)
	assert.Equal(t, hostels.Hybrid, h.Category)
	hostelsEditFlags.category = ""

	exec("hostels", "remove", "Test Hostel")
	catalog, _, _ = hostels.OpenCatalog(file)
	assert.Equal(t, defaults, catalog.Len())

	assert.Contains(t, exec("hostels", "list"), "hostels")
}

func TestOpenHistoryFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, writeFile(blocker, "x"))

	cfg = config.Default()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = filepath.Join(blocker, "prices.db")
	logger = observability.Nop()

	var stderr bytes.Buffer
	repo := openHistory(context.Background(), &stderr)
	assert.Nil(t, repo)
	assert.Contains(t, stderr.String(), "history disabled")

	cfg.Storage.Driver = "none"
	stderr.Reset()
	assert.Nil(t, openHistory(context.Background(), &stderr))
	assert.Empty(t, stderr.String())
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "prices.db")
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(cfgFile, "storage:\n  driver: sqlite\n  dsn: "+dsn+"\n"))

	seed := config.Default()
	seed.Storage.Driver = "sqlite"
	seed.Storage.DSN = dsn
	repo, err := storage.Open(context.Background(), seed, observability.Nop())
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	stay := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	url := "https://www.booking.com/hotel/es/a.html"
	_, _, err = storage.SaveAll(context.Background(), repo, []analysis.Observation{
		{RunID: "run-42", HostelName: "A", HostelURL: url, Category: hostels.Shared, Date: stay, Adults: 2, Scraped: 100, Derived: 120, ScrapedAt: at},
		{RunID: "run-42", HostelName: "A", HostelURL: url, Category: hostels.Shared, Date: stay, Adults: 1, Scraped: 50, Derived: 60, ScrapedAt: at},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgFile, "history"})
	require.NoError(t, rootCmd.Execute())

	got := out.String()
	assert.Contains(t, got, "Fecha scrape")
	assert.Contains(t, got, "run-42")
	assert.Contains(t, got, "Estadística diaria, 2 adultos")
	// 75.00 - среднее 1 и 2 взрослых вместе
	assert.NotContains(t, got, "75.00")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
