package flags

import (
	"fmt"

	"github.com/dtomasi/yangtze/cli-runtime/printers"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Output     string
	NoHeaders  bool
	ShowLabels bool
}

// NewOutputConfig creates a new OutputConfig with defaults
func NewOutputConfig() *OutputConfig {
	return &OutputConfig{Output: DefaultOutputFormat}
}

// Validate rejects unsupported output formats.
func (c *OutputConfig) Validate() error {
	if !printers.IsSupportedFormat(c.Output) {
		return fmt.Errorf("unsupported output format %q", c.Output)
	}
	return nil
}

// Printer builds the printer selected by the configuration.
func (c *OutputConfig) Printer(columns printers.ColumnProvider) (printers.Printer, error) {
	factory := printers.NewPrinterFactory(&printers.PrinterOptions{
		NoHeaders:  c.NoHeaders,
		ShowLabels: c.ShowLabels,
		Columns:    columns,
	})
	return factory.NewPrinter(c.Output)
}

// SelectorConfig contains resource selection configuration
type SelectorConfig struct {
	Namespace     string
	AllNamespaces bool
	Name          string
	Where         string
}

// NewSelectorConfig creates a new SelectorConfig with defaults
func NewSelectorConfig() *SelectorConfig {
	return &SelectorConfig{Namespace: DefaultNamespace}
}

// NamespaceName converts the selection into a list filter. AllNamespaces
// drops the namespace; an empty name matches every name.
func (c *SelectorConfig) NamespaceName() v1.NamespaceName {
	var nn v1.NamespaceName
	if !c.AllNamespaces {
		ns := c.Namespace
		nn.Namespace = &ns
	}
	if c.Name != "" {
		name := c.Name
		nn.Name = &name
	}
	return nn
}

// CreateConfig contains create operation configuration
type CreateConfig struct {
	Filenames []string
}

// NewCreateConfig creates a new CreateConfig with defaults
func NewCreateConfig() *CreateConfig {
	return &CreateConfig{}
}

// DeleteConfig contains delete operation configuration
type DeleteConfig struct {
	IgnoreNotFound bool
}

// NewDeleteConfig creates a new DeleteConfig with defaults
func NewDeleteConfig() *DeleteConfig {
	return &DeleteConfig{}
}
