// FILE: src/internal/response/response_test.go
package response

import (
	"encoding/json"
	"testing"

	"pgmoneta-mcp/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOutcome(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		reply, err := CheckOutcome(`{"Outcome":{"Status":true},"Response":{"Server":"pg1"}}`)
		require.NoError(t, err)
		assert.Contains(t, reply, "Response")
	})

	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"NotJSON", `not json`, core.ErrProtocol},
		{"Null", `null`, core.ErrProtocol},
		{"Array", `[1,2]`, core.ErrProtocol},
		{"MissingOutcome", `{"Response":{}}`, core.ErrProtocol},
		{"OutcomeNotObject", `{"Outcome":true}`, core.ErrProtocol},
		{"MissingStatus", `{"Outcome":{"Time":"00:00:01"}}`, core.ErrProtocol},
		{"StatusNotBool", `{"Outcome":{"Status":"true"}}`, core.ErrProtocol},
		{"StatusFalse", `{"Outcome":{"Status":false,"Error":2}}`, core.ErrApplication},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CheckOutcome(tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	testCases := []struct {
		size uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, FormatFileSize(tc.size))
	}
}

func TestTranslate(t *testing.T) {
	reply, err := CheckOutcome(`{
		"Header": {"Command": 18, "Compression": 0, "Encryption": 0},
		"Outcome": {"Status": true, "Time": "00:00:00"},
		"Response": {
			"Server": "pg1",
			"BackupSize": 1536,
			"RestoreSize": 1073741824,
			"StartHiLSN": 0,
			"StartLoLSN": 50331688,
			"Compression": 2,
			"Encryption": 1,
			"Valid": 1,
			"Backups": [
				{"Backup": "20250101000000", "BackupSize": 512, "Compression": 3},
				{"Backup": "20250102000000", "BackupSize": 2048, "Compression": 0}
			]
		}
	}`)
	require.NoError(t, err)

	out, err := Translate(reply)
	require.NoError(t, err)

	header := out["Header"].(map[string]any)
	assert.Equal(t, "info", header["Command"])
	assert.Equal(t, "none", header["Compression"])

	resp := out["Response"].(map[string]any)
	assert.Equal(t, "pg1", resp["Server"])
	assert.Equal(t, "1.50 KB", resp["BackupSize"])
	assert.Equal(t, "1.00 GB", resp["RestoreSize"])
	assert.Equal(t, "0x0", resp["StartHiLSN"])
	assert.Equal(t, "0x3000028", resp["StartLoLSN"])
	assert.Equal(t, "zstd", resp["Compression"])
	assert.Equal(t, "aes-256-cbc", resp["Encryption"])
	assert.Equal(t, json.Number("1"), resp["Valid"])

	backups := resp["Backups"].([]any)
	require.Len(t, backups, 2)
	first := backups[0].(map[string]any)
	assert.Equal(t, "512 B", first["BackupSize"])
	assert.Equal(t, "lz4", first["Compression"])
	second := backups[1].(map[string]any)
	assert.Equal(t, "2.00 KB", second["BackupSize"])

	// Input is left untouched
	assert.Equal(t, json.Number("1536"), reply["Response"].(map[string]any)["BackupSize"])
}

func TestTranslate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   map[string]any
		wantErr error
	}{
		{"UnknownCompression", map[string]any{"Compression": json.Number("42")}, core.ErrUnrecognizedEnum},
		{"UnknownEncryption", map[string]any{"Encryption": json.Number("7")}, core.ErrUnrecognizedEnum},
		{"UnknownCommand", map[string]any{"Command": json.Number("0")}, core.ErrUnrecognizedEnum},
		{"NestedUnknown", map[string]any{"Response": map[string]any{"Compression": json.Number("9")}}, core.ErrUnrecognizedEnum},
		{"SizeNotNumber", map[string]any{"BackupSize": "big"}, core.ErrProtocol},
		{"NegativeSize", map[string]any{"BackupSize": json.Number("-1")}, core.ErrProtocol},
		{"FractionalLSN", map[string]any{"EndLoLSN": 1.5}, core.ErrProtocol},
		{"BackupsNotArray", map[string]any{"Backups": "none"}, core.ErrProtocol},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Translate(tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestTranslate_AcceptsFloatNumbers(t *testing.T) {
	out, err := Translate(map[string]any{"BackupSize": float64(2048), "EndLoLSN": float64(255)})
	require.NoError(t, err)
	assert.Equal(t, "2.00 KB", out["BackupSize"])
	assert.Equal(t, "0xFF", out["EndLoLSN"])
}
