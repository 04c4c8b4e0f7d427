package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONExporter is an [Exporter] that transforms a report into a JSON document.
type JSONExporter struct{}

// Export implements [Exporter] for [JSONExporter] and exports the given report
// as a complete JSON document.
func (j JSONExporter) Export(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(report)
}

// JSONImporter is an [Importer] that reads edits from a JSON document.
type JSONImporter struct{}

// Import implements [Importer] for [JSONImporter] and imports the given
// JSON document into [Edits].
func (j JSONImporter) Import(r io.Reader) (Edits, error) {
	var edits Edits

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&edits); err != nil {
		return Edits{}, fmt.Errorf("could not decode JSON: %w", err)
	}

	if err := edits.Validate(); err != nil {
		return Edits{}, err
	}

	return edits, nil
}
