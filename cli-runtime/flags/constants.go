package flags

// Flag name constants for the yzctl command line.
// These constants ensure consistency and prevent typos in flag usage.

// Output formatting flags
const (
	// FlagOutput specifies the output format (table, wide, json, yaml, name)
	FlagOutput = "output"
	// FlagOutputShort is the short form of output flag
	FlagOutputShort = "o"
	// FlagNoHeaders disables header printing in table output
	FlagNoHeaders = "no-headers"
	// FlagShowLabels shows all labels as the last column
	FlagShowLabels = "show-labels"
)

// Resource selection flags
const (
	// FlagNamespace specifies the namespace scope
	FlagNamespace = "namespace"
	// FlagNamespaceShort is the short form of namespace flag
	FlagNamespaceShort = "n"
	// FlagAllNamespaces lists resources across all namespaces
	FlagAllNamespaces = "all-namespaces"
	// FlagAllNamespacesShort is the short form of all-namespaces flag
	FlagAllNamespacesShort = "A"
	// FlagName selects objects by name
	FlagName = "name"
	// FlagWhere filters listed objects with a CEL expression over self
	FlagWhere = "where"
)

// Create operation flags
const (
	// FlagFilename specifies manifest files
	FlagFilename = "filename"
	// FlagFilenameShort is the short form of filename flag
	FlagFilenameShort = "f"
)

// Delete operation flags
const (
	// FlagIgnoreNotFound returns success even if object doesn't exist
	FlagIgnoreNotFound = "ignore-not-found"
)

// Connection flags
const (
	// FlagServer is the API server base URL
	FlagServer = "server"
	// FlagServerShort is the short form of server flag
	FlagServerShort = "s"
	// FlagRequestTimeout bounds every API call
	FlagRequestTimeout = "request-timeout"
)

// Default values for commonly used flags
const (
	// DefaultOutputFormat is the default output format
	DefaultOutputFormat = "table"
	// DefaultNamespace is the default namespace when none specified
	DefaultNamespace = "default"
)
