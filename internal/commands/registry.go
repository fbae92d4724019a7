// Package commands provides a central registry of brag commands.
// This registry is the single source of truth for command metadata,
// used by both the CLI and MCP server.
package commands

// Meta defines metadata for a command that can be used to generate both
// Cobra commands and MCP tool schemas.
type Meta struct {
	Name        string     // Command name (e.g., "add", "outline")
	Tool        string     // MCP tool name without the "brag_" prefix
	Description string     // Short description
	LongDesc    string     // Long description (for --help and MCP)
	Args        []ArgMeta  // Positional arguments
	Flags       []FlagMeta // Command flags
	Examples    []string   // Usage examples
	Mutating    bool       // Changes the document or its index
	Run         RunFunc    // Executes the command against a document
}

// ArgMeta defines a positional argument.
type ArgMeta struct {
	Name        string   // Argument name, also the MCP property name
	Description string   // Description
	Required    bool     // Is this argument required?
	Completions []string // Static completions (if any)
	DynamicComp string   // Dynamic completion type: "sections"
}

// FlagMeta defines a command flag.
type FlagMeta struct {
	Name        string   // Flag name (e.g., "entry-id"); MCP uses underscores
	Short       string   // Short flag (e.g., "p" for -p)
	Description string   // Description
	Type        FlagType // Type of flag
	Default     string   // Default value
	Examples    []string // Example values
	CLIOnly     bool     // Not exposed as an MCP property
}

// FlagType represents the type of a flag.
type FlagType string

const (
	FlagTypeString      FlagType = "string"
	FlagTypeBool        FlagType = "bool"
	FlagTypeInt         FlagType = "int"
	FlagTypeStringSlice FlagType = "stringSlice" // For repeatable string flags
)

// Document reference properties shared by every MCP tool.
const (
	ArgFullName      = "full_name"
	ArgYear          = "year"
	ArgWorkspaceRoot = "workspace_root"
)

var selectorFlags = []FlagMeta{
	{Name: "entry-id", Description: "Entry id returned by add or outline (preferred)", Type: FlagTypeString},
	{Name: "section-path", Description: "Section of the entry when selecting by text, e.g. \"Projects\"", Type: FlagTypeString},
	{Name: "old-text", Description: "Exact current text of the entry when selecting by text", Type: FlagTypeString},
	{Name: "occurrence-index", Description: "0-based index among entries with identical text (default 0)", Type: FlagTypeInt},
}

// Registry holds all registered commands.
var Registry = map[string]Meta{
	"ensure": {
		Name:        "ensure",
		Tool:        "ensure_document",
		Description: "Create the yearly brag document if it does not exist",
		LongDesc: `Creates "BragDocuments/<Name>/Brag Document - <Name> (<Year>).md" from the
workspace template and an empty entry index next to it.

Running it again is safe: an existing document is left exactly as it is and
the status "exists" is returned.`,
		Examples: []string{
			`brag ensure --name "Jane Doe" --year 2025`,
		},
		Mutating: true,
		Run:      runEnsure,
	},
	"outline": {
		Name:        "outline",
		Tool:        "get_outline",
		Description: "List every section with its entries and ids",
		LongDesc: `Lists all sections of the document in order, each with its bullet entries.

Entries carry their entry_id. An entry with an empty id was written outside
brag and has no index record yet; run repair to assign one. Sections whose
heading is missing from the document are flagged as missing.`,
		Flags: []FlagMeta{
			{Name: "render", Description: "Render the document as Markdown in the terminal", Type: FlagTypeBool, CLIOnly: true},
		},
		Examples: []string{
			`brag outline --name "Jane Doe" --year 2025`,
			`brag outline --render`,
		},
		Run: runOutline,
	},
	"section": {
		Name:        "section",
		Tool:        "get_section",
		Description: "List the entries of one section",
		Args: []ArgMeta{
			{Name: "section_path", Description: `Section path, e.g. "Projects" or "Outside of work/Talks"`, Required: true, DynamicComp: "sections"},
		},
		Examples: []string{
			`brag section "Outside of work/Talks"`,
		},
		Run: runSection,
	},
	"add": {
		Name:        "add",
		Tool:        "add_entry",
		Description: "Add an entry to a section",
		LongDesc: `Adds a bullet to a section and assigns it a new entry id.

By default the entry is appended after the last bullet of the section. Use
--position to insert before the bullet at that 0-based position.`,
		Args: []ArgMeta{
			{Name: "section_path", Description: `Section path, e.g. "Projects" or "Goals/Goals for this year"`, Required: true, DynamicComp: "sections"},
			{Name: "text", Description: "Entry text (one line of Markdown)", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "position", Short: "p", Description: "0-based position to insert at (default: append)", Type: FlagTypeInt},
		},
		Examples: []string{
			`brag add Projects "Shipped the billing migration"`,
			`brag add Projects "Led the incident review" --position 0`,
		},
		Mutating: true,
		Run:      runAdd,
	},
	"update": {
		Name:        "update",
		Tool:        "update_entry",
		Description: "Change the text of an entry",
		LongDesc: `Replaces the text of one entry, selected by --entry-id, or by --section-path
and --old-text with an optional --occurrence-index for duplicate texts.

Selecting by id fails with STALE_INDEX when the entry's text was changed
outside brag; select it by text instead, or run repair.`,
		Args: []ArgMeta{
			{Name: "new_text", Description: "Replacement entry text", Required: true},
		},
		Flags: selectorFlags,
		Examples: []string{
			`brag update "Shipped v2 to all customers" --entry-id 5f0c...`,
			`brag update "Reviewed PR #42" --section-path Projects --old-text "Reviewed PR" --occurrence-index 1`,
		},
		Mutating: true,
		Run:      runUpdate,
	},
	"delete": {
		Name:        "delete",
		Tool:        "delete_entry",
		Description: "Delete an entry",
		LongDesc: `Removes one entry from the document and retires its id.

Select the entry like update does. Deleted ids are never reused.`,
		Flags: append(append([]FlagMeta(nil), selectorFlags...),
			FlagMeta{Name: "force", Short: "f", Description: "Do not ask for confirmation", Type: FlagTypeBool, CLIOnly: true},
		),
		Examples: []string{
			`brag delete --entry-id 5f0c...`,
			`brag delete --section-path Projects --old-text "Reviewed PR" --force`,
		},
		Mutating: true,
		Run:      runDelete,
	},
	"repair": {
		Name:        "repair",
		Tool:        "repair",
		Description: "Assign ids to unindexed entries and report stale records",
		LongDesc: `Reconciles the entry index with the document. Bullets without an index
record get a new id. Records whose text no longer appears in the document
are reported as orphans, and removed with --prune.

The document itself is never changed.`,
		Flags: []FlagMeta{
			{Name: "prune", Description: "Remove orphan records from the index", Type: FlagTypeBool},
		},
		Examples: []string{
			`brag repair`,
			`brag repair --prune`,
		},
		Mutating: true,
		Run:      runRepair,
	},
	"history": {
		Name:        "history",
		Tool:        "history",
		Description: "Show recorded changes to the document",
		Flags: []FlagMeta{
			{Name: "entry-id", Description: "Only changes to this entry", Type: FlagTypeString},
			{Name: "op", Description: "Only these operations (create, add, update, delete, repair)", Type: FlagTypeStringSlice},
			{Name: "limit", Short: "n", Description: "Maximum number of changes", Type: FlagTypeInt, Default: "20"},
		},
		Examples: []string{
			`brag history --limit 5`,
			`brag history --entry-id 5f0c... --op update`,
		},
		Run: runHistory,
	},
}

// GetCommandMeta returns the metadata for a command.
func GetCommandMeta(name string) (Meta, bool) {
	meta, ok := Registry[name]
	return meta, ok
}

// AllCommandNames returns all registered command names.
func AllCommandNames() []string {
	var names []string
	for name := range Registry {
		names = append(names, name)
	}
	return names
}

// ByTool returns the command exposed as the given MCP tool (without prefix).
func ByTool(tool string) (Meta, bool) {
	for _, meta := range Registry {
		if meta.Tool == tool {
			return meta, true
		}
	}
	return Meta{}, false
}
