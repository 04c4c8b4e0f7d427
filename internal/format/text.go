package format

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.followtheprocess.codes/hue"
)

// Styles.
const (
	// dimmed is the style used for informational content like the enclosing function.
	dimmed = hue.BrightBlack | hue.Italic

	// errorStyle is the style of the "error:" prefix of a message.
	errorStyle = hue.Red | hue.Bold

	// warningStyle is the style of the "warning:" prefix of a message.
	warningStyle = hue.Yellow | hue.Bold

	// noteStyle is the style of the "note:" prefix of a message.
	noteStyle = hue.Cyan | hue.Bold
)

//go:embed templates/text.txt.tmpl
var textTempl string

// textFunctions are custom template functions available in the textTemplate.
//
//nolint:gochecknoglobals // This has to be here
var textFunctions = template.FuncMap{
	"bold":     hue.Bold.Text,
	"dim":      dimmed.Text,
	"message":  styleMessage,
	"position": func(r Record) string { return r.Position().String() },
	"summary":  summary,
}

// textTemplate is the parsed text report template.
//
//nolint:gochecknoglobals // Having the template as a global means it's parsed only once
var textTemplate = template.Must(template.New("text").Funcs(textFunctions).Parse(textTempl))

// TextExporter is an [Exporter] that renders a report for humans, in a layout
// resembling the compiler's own.
type TextExporter struct{}

// Export implements [Exporter] for [TextExporter].
func (t TextExporter) Export(w io.Writer, report Report) error {
	return textTemplate.Execute(w, report)
}

// styleMessage colours the kind prefix of a compiler message e.g. "error:".
func styleMessage(message string) string {
	kind, rest, ok := strings.Cut(message, ":")
	if !ok {
		return message
	}

	var style hue.Style

	switch strings.TrimSpace(kind) {
	case "error", "fatal error":
		style = errorStyle
	case "warning":
		style = warningStyle
	case "note":
		style = noteStyle
	default:
		return message
	}

	return style.Text(kind+":") + rest
}

// summary returns the closing line of a text report.
func summary(report Report) string {
	files := make(map[string]struct{})
	for _, record := range report.Records {
		files[record.File] = struct{}{}
	}

	return fmt.Sprintf(
		"%d %s in %d %s",
		len(report.Records),
		plural(len(report.Records), "diagnostic line"),
		len(files),
		plural(len(files), "file"),
	)
}

// plural returns word, pluralised if n is not 1.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}
