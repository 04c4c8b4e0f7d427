package format

import (
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v4"
)

const yamlIndent = 2

// YAMLExporter is an [Exporter] that transforms a report into a YAML document.
type YAMLExporter struct{}

// Export implements [Exporter] for [YAMLExporter] and exports the given report as
// a complete YAML document.
func (y YAMLExporter) Export(w io.Writer, report Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(report); err != nil {
		return err
	}

	return encoder.Close()
}

// YAMLImporter is an [Importer] that reads edits from a YAML document.
type YAMLImporter struct{}

// Import implements [Importer] for [YAMLImporter] and imports the given
// YAML document into [Edits].
func (y YAMLImporter) Import(r io.Reader) (Edits, error) {
	var edits Edits

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&edits); err != nil {
		if errors.Is(err, io.EOF) {
			return Edits{}, errors.New("could not decode YAML: empty document")
		}

		return Edits{}, fmt.Errorf("could not decode YAML: %w", err)
	}

	if err := edits.Validate(); err != nil {
		return Edits{}, err
	}

	return edits, nil
}
