// FILE: src/internal/response/outcome.go
package response

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pgmoneta-mcp/src/internal/core"
)

// CheckOutcome parses a reply body and requires Outcome.Status to be true.
// Numbers are kept as json.Number so large sizes and LSNs survive intact.
func CheckOutcome(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var reply map[string]any
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", core.ErrProtocol, err)
	}
	if reply == nil {
		return nil, fmt.Errorf("%w: response is not a json object", core.ErrProtocol)
	}

	raw, ok := reply[core.ManagementCategoryOutcome]
	if !ok {
		return nil, fmt.Errorf("%w: response has no %s", core.ErrProtocol, core.ManagementCategoryOutcome)
	}
	outcome, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, expected object",
			core.ErrProtocol, core.ManagementCategoryOutcome, raw)
	}

	rawStatus, ok := outcome[core.ManagementArgumentStatus]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s",
			core.ErrProtocol, core.ManagementCategoryOutcome, core.ManagementArgumentStatus)
	}
	status, ok := rawStatus.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, expected bool",
			core.ErrProtocol, core.ManagementArgumentStatus, rawStatus)
	}
	if !status {
		return nil, fmt.Errorf("%w: daemon reported failure: %s", core.ErrApplication, describeOutcome(outcome))
	}

	return reply, nil
}

func describeOutcome(outcome map[string]any) string {
	b, err := json.Marshal(outcome)
	if err != nil {
		return "outcome unavailable"
	}
	return string(b)
}
