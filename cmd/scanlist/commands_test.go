package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ScanList/internal/core"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("STORE_DIR", filepath.Join(dir, "store"))
	t.Setenv("LOG_LEVEL", "error")

	csvPath := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("BARCODE,PRODUCTNAME,UOM,SELLPRICE\n123,Soap,pcs,2.5\n,Orphan,pcs,1\n456,Milk,l,abc\n"), 0o600))
	return csvPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadLookupInfoClear(t *testing.T) {
	csvPath := setupEnv(t)

	out, err := execute(t, "", "load", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully loaded 2 products from products.csv.")
	assert.Contains(t, out, "Skipped 1 rows without a barcode.")

	out, err = execute(t, "", "lookup", "123", "999")
	require.NoError(t, err)
	assert.Contains(t, out, "Soap")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "Barcode 999 not found.")

	out, err = execute(t, "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 items loaded)")

	_, err = execute(t, "", "clear")
	require.NoError(t, err)

	_, err = execute(t, "", "lookup", "123")
	assert.ErrorIs(t, err, core.ErrCatalogEmpty)
}

func TestLoad_SchemaError(t *testing.T) {
	setupEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("BARCODE,NAME\n1,x\n"), 0o600))

	_, err := execute(t, "", "load", bad)
	var se *core.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"PRODUCTNAME", "UOM", "SELLPRICE"}, se.Missing)
	assert.Contains(t, describeError(err), "CAT001")
}

func TestScan_Stdin(t *testing.T) {
	csvPath := setupEnv(t)
	_, err := execute(t, "", "load", csvPath)
	require.NoError(t, err)

	out, err := execute(t, "123\n\n999\n123\n456\n", "scan")
	require.NoError(t, err)

	assert.Contains(t, out, "[found] Scanned: Soap")
	assert.Contains(t, out, "[not_found] Barcode 999 not found.")
	assert.Contains(t, out, "[duplicate] Already scanned: Soap")
	assert.Contains(t, out, "0.00", "unparseable price shows as zero")

	// Newest first.
	assert.Less(t, strings.Index(out, "Milk"), strings.LastIndex(out, "Soap"))
}

func TestScan_NoCatalog(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "123\n", "scan")
	assert.ErrorIs(t, err, core.ErrCatalogEmpty)
}

func TestScan_MissingDevice(t *testing.T) {
	csvPath := setupEnv(t)
	_, err := execute(t, "", "load", csvPath)
	require.NoError(t, err)

	_, err = execute(t, "", "scan", "--device", filepath.Join(t.TempDir(), "missing"))
	var de *core.DecoderError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, core.DecoderNoCamera, de.Kind)
	assert.True(t, de.Setup)
}

func TestStatusLine(t *testing.T) {
	st := core.Status{Kind: core.StatusDecoderError, Text: "Camera permission denied.", Alert: "Allow camera access"}
	assert.Equal(t, "[decoder_error] Camera permission denied. (Allow camera access)", statusLine(st, false))
	assert.True(t, strings.HasPrefix(statusLine(st, true), ansiRed))
}
