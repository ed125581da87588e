// Package printers provides output formatters for CLI operations: table,
// JSON, YAML and name-only output of yangtze resources.
package printers

import (
	"fmt"
	"io"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Printer knows how to print resources. Objects are typed resources or
// anything else that marshals to the JSON resource form.
type Printer interface {
	// PrintObj prints a single object
	PrintObj(obj any, writer io.Writer) error
	// PrintList prints a collection; an empty collection prints nothing
	// for line oriented formats
	PrintList(objs []any, writer io.Writer) error
}

// Output formats understood by NewPrinter.
const (
	FormatTable = "table"
	FormatWide  = "wide"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatName  = "name"
)

var supportedFormats = sets.New(FormatTable, FormatWide, FormatJSON, FormatYAML, FormatName)

// PrinterOptions contains configuration for printers.
type PrinterOptions struct {
	// NoHeaders indicates whether to omit headers in table output
	NoHeaders bool
	// ShowLabels indicates whether to show labels in table output
	ShowLabels bool
	// Wide adds the object id to table output
	Wide bool
	// Columns provides the per-kind table columns
	Columns ColumnProvider
}

// PrinterFactory creates printers for different output formats.
type PrinterFactory struct {
	options *PrinterOptions
}

// NewPrinterFactory creates a new printer factory with the given options.
func NewPrinterFactory(options *PrinterOptions) *PrinterFactory {
	if options == nil {
		options = &PrinterOptions{}
	}
	return &PrinterFactory{options: options}
}

// NewPrinter creates a printer for the specified format. An empty format
// selects the table.
func (f *PrinterFactory) NewPrinter(format string) (Printer, error) {
	switch format {
	case FormatJSON:
		return NewJSONPrinter(), nil
	case FormatYAML:
		return NewYAMLPrinter(), nil
	case FormatName:
		return NewNamePrinter(), nil
	case FormatTable, "":
		return NewTablePrinter(f.options), nil
	case FormatWide:
		opts := *f.options
		opts.Wide = true
		return NewTablePrinter(&opts), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q, expected one of: %s",
			format, strings.Join(f.GetSupportedFormats(), "|"))
	}
}

// GetSupportedFormats returns the supported output formats in sorted order.
func (f *PrinterFactory) GetSupportedFormats() []string {
	return sets.List(supportedFormats)
}

// IsSupportedFormat reports whether NewPrinter accepts format.
func IsSupportedFormat(format string) bool {
	return format == "" || supportedFormats.Has(format)
}
