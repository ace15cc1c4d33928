package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (A100-A199)

	"A101": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No atoms.json or atoms.yaml was found in the directory.",
		Suggestion: "Run without --config to use the defaults, or point --config at an existing file",
	},
	"A102": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
		Detail:   "The file is not valid JSON or YAML, or a field has the wrong type.",
	},
	"A103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"A104": {
		Category: CategoryConfig,
		Message:  "Config file could not be written",
	},

	// CLI (A200-A299)

	"A201": {
		Category:   CategoryCLI,
		Message:    "Unknown demo scenario",
		Suggestion: "Run 'atoms demo --list' to see the available scenarios",
	},
	"A202": {
		Category: CategoryCLI,
		Message:  "Demo scenario failed",
	},
	"A203": {
		Category: CategoryDevtools,
		Message:  "Devtools server failed",
		Detail:   "The HTTP server could not start or stopped with an error.",
	},

	// Store (A300-A399)

	"A301": {
		Category:   CategoryStore,
		Message:    "Cyclic dependency",
		Detail:     "An atom read itself while being computed, directly or through other atoms.",
		Suggestion: "Break the cycle by moving the shared state into a primitive atom",
	},
	"A302": {
		Category: CategoryStore,
		Message:  "Atom is not writable",
		Detail:   "Only primitive atoms and atoms created with a write function accept writes.",
	},
	"A303": {
		Category: CategoryStore,
		Message:  "Invalid value",
		Detail:   "The value written does not have the atom's type.",
	},
	"A304": {
		Category: CategoryStore,
		Message:  "Store closed",
	},
}

// Lookup returns the template for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns the number of registered codes.
func Codes() int {
	return len(registry)
}
