package printers

import (
	"fmt"
	"io"
)

// namePrinter prints objects as {kind}/{namespace}/{name}.
type namePrinter struct{}

// NewNamePrinter creates a new name printer.
func NewNamePrinter() Printer {
	return &namePrinter{}
}

// PrintObj prints an object as name-only output.
func (p *namePrinter) PrintObj(obj any, writer io.Writer) error {
	meta, err := metadataOf(obj)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, meta.String())
	return err
}

// PrintList prints one name per line.
func (p *namePrinter) PrintList(objs []any, writer io.Writer) error {
	for _, obj := range objs {
		if err := p.PrintObj(obj, writer); err != nil {
			return err
		}
	}
	return nil
}
