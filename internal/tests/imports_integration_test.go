//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/vichambarde/serverroom/pkg/importer"
)

func workbook(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet("Inventory")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sh.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func importRequest(t *testing.T, token string, content []byte, dryRun bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if dryRun {
		require.NoError(t, writer.WriteField("dry_run", "true"))
	}
	fw, err := writer.CreateFormFile("file", "stock.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/admin/items/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImportsIntegration(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "Arduino Uno", 2)
	token := env.adminToken(t)

	content := workbook(t,
		[]string{"Item", "Qty"},
		[]string{"Arduino Uno", "3"},
		[]string{"ESP32", "10"},
		[]string{"Broken", "-1"},
	)

	t.Run("UploadExcelDryRun", func(t *testing.T) {
		w := env.serve(importRequest(t, token, content, true))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data importer.ImportSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.DryRun)
		assert.Equal(t, 2, resp.Data.Valid)
		assert.Equal(t, 1, resp.Data.Errors)

		item, err := env.store.Catalog().FindByName(context.Background(), "Arduino Uno")
		require.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("UploadExcel", func(t *testing.T) {
		w := env.serve(importRequest(t, token, content, false))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data importer.ImportSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Data.Created)
		assert.Equal(t, 1, resp.Data.Restocked)

		items, err := env.store.Catalog().List(context.Background())
		require.NoError(t, err)
		got := map[string]int{}
		for _, it := range items {
			got[it.Name] = it.Quantity
		}
		assert.Equal(t, map[string]int{"Arduino Uno": 5, "ESP32": 10}, got)
	})
}
