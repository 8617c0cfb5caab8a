// FILE: src/internal/response/translate.go
package response

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/protocol"
)

var sizeFields = map[string]bool{
	"BackupSize":         true,
	"RestoreSize":        true,
	"BiggestFileSize":    true,
	"Delta":              true,
	"TotalSpace":         true,
	"FreeSpace":          true,
	"UsedSpace":          true,
	"WorkspaceFreeSpace": true,
	"HotStandbySize":     true,
}

var lsnFields = map[string]bool{
	"CheckpointHiLSN": true,
	"CheckpointLoLSN": true,
	"StartHiLSN":      true,
	"StartLoLSN":      true,
	"EndHiLSN":        true,
	"EndLoLSN":        true,
}

var arrayFields = map[string]bool{
	"Backups": true,
}

const (
	fieldCompression = "Compression"
	fieldEncryption  = "Encryption"
	fieldCommand     = "Command"
)

// Translate returns a copy of reply with numeric codes and sizes rendered
// for display. Nested objects and the elements of object arrays are
// translated recursively.
func Translate(reply map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(reply))
	for key, value := range reply {
		translated, err := translateField(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = translated
	}
	return out, nil
}

func translateField(key string, value any) (any, error) {
	switch {
	case sizeFields[key]:
		n, err := unsigned(key, value)
		if err != nil {
			return nil, err
		}
		return FormatFileSize(n), nil

	case lsnFields[key]:
		n, err := unsigned(key, value)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("0x%X", n), nil

	case key == fieldCompression:
		n, err := unsigned(key, value)
		if err != nil {
			return nil, err
		}
		return protocol.TranslateCompression(n)

	case key == fieldEncryption:
		n, err := unsigned(key, value)
		if err != nil {
			return nil, err
		}
		return protocol.TranslateEncryption(n)

	case key == fieldCommand:
		n, err := unsigned(key, value)
		if err != nil {
			return nil, err
		}
		return protocol.TranslateCommand(n)

	case arrayFields[key]:
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, expected array", core.ErrProtocol, key, value)
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				out = append(out, item)
				continue
			}
			translated, err := Translate(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, translated)
		}
		return out, nil
	}

	if obj, ok := value.(map[string]any); ok {
		return Translate(obj)
	}
	return value, nil
}

// unsigned accepts json.Number or float64 holding a non-negative integer
func unsigned(key string, value any) (uint64, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an unsigned integer: %s", core.ErrProtocol, key, v)
		}
		return n, nil
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint64 {
			return 0, fmt.Errorf("%w: %s is not an unsigned integer: %v", core.ErrProtocol, key, v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, expected number", core.ErrProtocol, key, value)
	}
}

// FormatFileSize renders bytes with binary units and two decimals above 1 KB
func FormatFileSize(size uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
	)

	switch {
	case size < kb:
		return fmt.Sprintf("%d B", size)
	case size < mb:
		return fmt.Sprintf("%.2f KB", float64(size)/kb)
	case size < gb:
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	case size < tb:
		return fmt.Sprintf("%.2f GB", float64(size)/gb)
	default:
		return fmt.Sprintf("%.2f TB", float64(size)/tb)
	}
}
