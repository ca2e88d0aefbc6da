package config

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	// OutputFormatList prints one discovered path per line
	OutputFormatList OutputFormat = "list"

	// OutputFormatTree represents the tree-style output format
	OutputFormatTree OutputFormat = "tree"

	// OutputFormatJSON represents the JSON output format
	OutputFormatJSON OutputFormat = "json"

	// OutputFormatYAML represents the YAML output format
	OutputFormatYAML OutputFormat = "yaml"

	// OutputFormatTOML represents the TOML output format
	OutputFormatTOML OutputFormat = "toml"
)

// Constants for configuration limits and defaults
const (
	// EnvPrefix prefixes every environment variable
	EnvPrefix = "DBWALK"

	// DefaultSystemDir is the shipped database directory
	DefaultSystemDir = "/usr/share/dbwalk/db"

	// DefaultLocalDir is the administrator override directory
	DefaultLocalDir = "/etc/dbwalk/db"

	// DefaultExtensions selects the files handed to the parser
	DefaultExtensions = ".xml"

	// DefaultMaxLinkDepth bounds symbolic link hops along one path
	DefaultMaxLinkDepth = 8

	// MaxWorkerMultiplier is the maximum multiple of CPU cores for worker count
	MaxWorkerMultiplier = 4

	// UnlimitedDepth represents unlimited directory depth
	UnlimitedDepth = -1
)

// Root labels used by Roots
const (
	LabelSystem = "system"
	LabelLocal  = "local"
	LabelUser   = "user"
)
