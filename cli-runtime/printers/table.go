package printers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dtomasi/yangtze/core/pkg/codec"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// tablePrinter prints objects as aligned columns. The columns are chosen by
// the kind of the first object.
type tablePrinter struct {
	options *PrinterOptions
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(options *PrinterOptions) Printer {
	if options == nil {
		options = &PrinterOptions{}
	}
	return &tablePrinter{options: options}
}

// PrintObj prints an object in table format.
func (p *tablePrinter) PrintObj(obj any, writer io.Writer) error {
	return p.PrintList([]any{obj}, writer)
}

// PrintList prints a header and one row per object.
func (p *tablePrinter) PrintList(objs []any, writer io.Writer) error {
	if len(objs) == 0 {
		return nil
	}

	first, err := metadataOf(objs[0])
	if err != nil {
		return err
	}
	columns := p.getColumns(first.Kind)

	tw := tabwriter.NewWriter(writer, 0, 8, 3, ' ', 0)
	if !p.options.NoHeaders {
		if err := p.printHeader(columns, tw); err != nil {
			return err
		}
	}
	for _, obj := range objs {
		if err := p.printObjectRow(obj, columns, tw); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (p *tablePrinter) getColumns(kind string) []v1.PrintColumn {
	columns := baseColumns(p.options.Wide)
	if p.options.Columns != nil {
		columns = append(columns, p.options.Columns.Columns(kind)...)
	}
	return columns
}

func (p *tablePrinter) printHeader(columns []v1.PrintColumn, writer io.Writer) error {
	headers := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		headers = append(headers, strings.ToUpper(col.Name))
	}
	if p.options.ShowLabels {
		headers = append(headers, "LABELS")
	}
	_, err := fmt.Fprintln(writer, strings.Join(headers, "\t"))
	return err
}

func (p *tablePrinter) printObjectRow(obj any, columns []v1.PrintColumn, writer io.Writer) error {
	fields, err := codec.ToMap(obj)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		values = append(values, extractColumnValue(fields, col))
	}
	if p.options.ShowLabels {
		meta, err := metadataOf(obj)
		if err != nil {
			return err
		}
		values = append(values, formatLabels(meta.Labels))
	}

	_, err = fmt.Fprintln(writer, strings.Join(values, "\t"))
	return err
}
