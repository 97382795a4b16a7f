package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Hook Errors (DEM001-DEM004)
	// ============================================

	"DEM001": {
		Category:   CategoryHook,
		Message:    "Hook order changed",
		Detail:     "Hooks are stored by position. A component must call the same hooks, in the same order, on every render of a mounted instance.",
		Suggestion: "Move conditional logic inside the hook callback instead of around the hook call.",
	},
	"DEM002": {
		Category:   CategoryHook,
		Message:    "Hook called outside of render",
		Detail:     "Hooks can only be called while their component is rendering, through the *Hooks handle passed to that render.",
		Suggestion: "Do not keep the *Hooks handle after the component function returns.",
	},
	"DEM003": {
		Category: CategoryRuntime,
		Message:  "Cannot set state of an unmounted component",
		Detail:   "The node that owns this setter was removed from the tree.",
	},
	"DEM004": {
		Category:   CategoryRuntime,
		Message:    "Cannot set state during render",
		Detail:     "State setters and dispatchers must not run synchronously inside a component render.",
		Suggestion: "Update state from an effect or from outside the store.",
	},

	// ============================================
	// Store Errors (DEM005-DEM007)
	// ============================================

	"DEM005": {
		Category: CategoryCodec,
		Message:  "Cannot decode payload",
		Detail:   "The payload is not a valid snapshot or patch envelope for the selected format.",
	},
	"DEM006": {
		Category: CategoryRuntime,
		Message:  "Store destroyed",
		Detail:   "The store was destroyed and cannot be mutated anymore.",
	},
	"DEM007": {
		Category: CategoryRuntime,
		Message:  "Store already destroyed",
	},

	// ============================================
	// Tree Errors (DEM008-DEM011)
	// ============================================

	"DEM008": {
		Category:   CategoryChildren,
		Message:    "Invalid children type",
		Detail:     "Children must be nil, an *Element, a slice or array, a *Map, or a map with string keys.",
		Suggestion: "Wrap values that are not children in a component and return them from it.",
	},
	"DEM009": {
		Category:   CategoryContext,
		Message:    "Missing context provider",
		Detail:     "MustUseContext was called for a context with no default value and no enclosing provider.",
		Suggestion: "Wrap the consumer in ctx.Provider(value, children) or create the context with a default.",
	},
	"DEM010": {
		Category: CategoryPatch,
		Message:  "Invalid patch path",
		Detail:   "The patch path does not resolve to a component node in this tree.",
	},
	"DEM011": {
		Category: CategoryPatch,
		Message:  "Patch does not match hook",
		Detail:   "The hook at the patch's hook index is not of the patch's kind.",
	},

	// ============================================
	// Config & CLI Errors (DEM020-DEM029)
	// ============================================

	"DEM020": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"DEM021": {
		Category:   CategoryCLI,
		Message:    "Unknown format",
		Suggestion: "Use one of: json, yaml, msgpack.",
	},
	"DEM022": {
		Category:   CategoryCLI,
		Message:    "Unknown demo tree",
		Suggestion: "Run `democrat serve --help` to list the available demos.",
	},
	"DEM023": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create democrat.yaml or democrat.json, or pass --config with a path.",
	},
	"DEM024": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"DEM025": {
		Category: CategoryCLI,
		Message:  "Cannot read or write file",
	},
	"DEM026": {
		Category:   CategoryCLI,
		Message:    "Archive operation failed",
		Suggestion: "Check archive.location; s3:// locations read AWS_REGION, AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.",
	},
	"DEM027": {
		Category:   CategoryCLI,
		Message:    "Command failed",
		Suggestion: "Run `democrat --help` for usage.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
