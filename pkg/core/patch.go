// pkg/core/patch.go
package core

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Apply returns a copy of b with fields merged over it as an RFC 7386 merge
// patch. A null value clears the field. The id is never changed.
func (b Boat) Apply(fields map[string]any) (Boat, error) {
	doc, err := json.Marshal(b)
	if err != nil {
		return Boat{}, fmt.Errorf("failed to encode boat %s: %w", b.ID, err)
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return Boat{}, fmt.Errorf("failed to encode changes for boat %s: %w", b.ID, err)
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return Boat{}, fmt.Errorf("failed to merge changes into boat %s: %w", b.ID, err)
	}

	var out Boat
	if err := json.Unmarshal(merged, &out); err != nil {
		return Boat{}, fmt.Errorf("invalid changes for boat %s: %w", b.ID, err)
	}
	out.ID = b.ID
	return out, nil
}
