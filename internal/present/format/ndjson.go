package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/docgen/pkg/api"
)

// WriteNDJSONDrafts writes drafts as newline-delimited JSON objects.
func WriteNDJSONDrafts(w io.Writer, drafts []api.Draft) error {
	enc := json.NewEncoder(w)
	for _, d := range drafts {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}
