package rank

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

// Container keys the ranking service is known to wrap its array in, checked
// in fixed priority order.
var containerKeys = []string{"products", "top_products", "results", "items"}

// decodeRankedPayload accepts the three response shapes the ranking service
// produces: a bare array, an object with a known container key, or an object
// whose first array-valued member holds the results. Anything else is an
// error.
func decodeRankedPayload(raw []byte) ([]scout.RankedListing, error) {
	var direct []scout.RankedListing
	if err := json.Unmarshal(raw, &direct); err == nil && direct != nil {
		return direct, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode ranking payload: %w", err)
	}

	for _, key := range containerKeys {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		var ranked []scout.RankedListing
		if err := json.Unmarshal(inner, &ranked); err != nil || ranked == nil {
			return nil, fmt.Errorf("container %q held no listing array", key)
		}
		return ranked, nil
	}

	// Objects carry no member order in Go, so scan keys in sorted order as a
	// deterministic stand-in for "the first array-valued member".
	keys := make([]string, 0, len(wrapped))
	for key := range wrapped {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var ranked []scout.RankedListing
		if err := json.Unmarshal(wrapped[key], &ranked); err == nil && ranked != nil {
			return ranked, nil
		}
	}

	return nil, errors.New("ranking payload held no listing array")
}
