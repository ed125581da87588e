package printers

import (
	"fmt"
	"io"

	"github.com/dtomasi/yangtze/core/pkg/codec"
)

// yamlPrinter prints objects as YAML.
type yamlPrinter struct{}

// NewYAMLPrinter creates a new YAML printer.
func NewYAMLPrinter() Printer {
	return &yamlPrinter{}
}

// PrintObj prints an object as YAML.
func (p *yamlPrinter) PrintObj(obj any, writer io.Writer) error {
	data, err := codec.ToYAML(obj)
	if err != nil {
		return err
	}
	_, err = writer.Write(data)
	return err
}

// PrintList prints the objects as a stream of YAML documents.
func (p *yamlPrinter) PrintList(objs []any, writer io.Writer) error {
	for i, obj := range objs {
		if i > 0 {
			if _, err := fmt.Fprintln(writer, "---"); err != nil {
				return err
			}
		}
		if err := p.PrintObj(obj, writer); err != nil {
			return err
		}
	}
	return nil
}
