package functions

import (
	"encoding/json"
	"fmt"
	"sort"
)

// buildSchema is the full set of keys a create-time metadata document may
// carry. Missing keys are fine; unknown keys are not.
var buildSchema = map[string]struct{}{
	"name":        {},
	"description": {},
	"event":       {},
	"runtime":     {},
	"publish":     {},
	"memory":      {},
	"type":        {},
}

// ParseMetadata decodes a raw metadata document and rejects any key outside
// buildSchema. The check is a strict set difference: it never complains
// about absent keys, only extraneous ones.
func ParseMetadata(raw []byte) (*Metadata, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var extra []string
	for k := range doc {
		if _, ok := buildSchema[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: unknown keys %v", ErrValidation, extra)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &meta, nil
}
