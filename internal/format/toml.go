package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// TOMLExporter is an [Exporter] that transforms a report into a TOML document.
type TOMLExporter struct{}

// Export implements [Exporter] for [TOMLExporter] and exports the given report
// as a complete TOML document.
func (t TOMLExporter) Export(w io.Writer, report Report) error {
	encoder := toml.NewEncoder(w)
	encoder.Indent = ""

	return encoder.Encode(report)
}

// TOMLImporter is an [Importer] that reads edits from a TOML document.
type TOMLImporter struct{}

// Import implements [Importer] for [TOMLImporter] and imports the given
// TOML document into [Edits].
func (t TOMLImporter) Import(r io.Reader) (Edits, error) {
	var edits Edits

	meta, err := toml.NewDecoder(r).Decode(&edits)
	if err != nil {
		return Edits{}, fmt.Errorf("could not decode TOML: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return Edits{}, fmt.Errorf("could not decode TOML: unknown keys %s", strings.Join(keys, ", "))
	}

	if err := edits.Validate(); err != nil {
		return Edits{}, err
	}

	return edits, nil
}
