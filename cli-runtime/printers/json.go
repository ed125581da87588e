package printers

import (
	"encoding/json"
	"io"
)

// jsonPrinter prints objects as indented JSON.
type jsonPrinter struct{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter() Printer {
	return &jsonPrinter{}
}

// PrintObj prints an object as JSON.
func (p *jsonPrinter) PrintObj(obj any, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(obj)
}

// PrintList prints the objects as one JSON array.
func (p *jsonPrinter) PrintList(objs []any, writer io.Writer) error {
	if objs == nil {
		objs = []any{}
	}
	return p.PrintObj(objs, writer)
}
