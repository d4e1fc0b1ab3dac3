package policy

// ToolGroups defines named groups of tools for easier policy configuration.
// Group names use the "group:" prefix to distinguish them from tool names.
var ToolGroups = map[string][]string{
	// Runtime/execution tools - commands that run code or processes
	"group:runtime": {"shell"},

	// Filesystem tools - read/write/modify files
	"group:fs": {"read_file", "write_file", "edit_file"},

	// Kartavya scheduling and status tools
	"group:jobs": {"kartavya_status", "kartavya_cancel"},

	// Memory/knowledge retrieval tools
	"group:memory": {"memory_search", "memory_get"},

	// Messaging tools - publish to Samiti topics or notify a user
	"group:messaging": {"notify", "samiti_publish"},

	// Web tools - search and fetch from the web
	"group:web": {"web_search", "web_fetch"},

	// All built-in native tools
	"group:native": {
		// Runtime
		"shell",
		// Filesystem
		"read_file", "write_file", "edit_file",
		// Web
		"web_search", "web_fetch",
		// Memory
		"memory_search", "memory_get",
		// Messaging
		"notify", "samiti_publish",
		// Jobs
		"kartavya_status", "kartavya_cancel",
	},

	// Read-only tools - safe tools that don't modify state
	"group:readonly": {
		"read_file",
		"web_search", "web_fetch",
		"memory_search", "memory_get",
		"kartavya_status",
	},
}

// ToolProfiles defines pre-configured tool sets for common agent roles.
var ToolProfiles = map[string]*Policy{
	// Coding profile - full development capabilities
	"coding": {
		Profile: ProfileCoding,
		Allow: []string{
			"group:fs",
			"group:runtime",
			"group:web",
			"group:memory",
			"group:jobs",
		},
	},

	// Messaging profile - only messaging tools
	"messaging": {
		Profile: ProfileMessaging,
		Allow: []string{
			"group:messaging",
			"kartavya_status",
		},
	},

	// Readonly profile - observation only, no modifications
	"readonly": {
		Allow: []string{
			"group:readonly",
		},
	},

	// Full profile - everything allowed (except explicit denies)
	"full": {
		Profile: ProfileFull,
	},

	// Minimal profile - just status checks
	"minimal": {
		Profile: ProfileMinimal,
		Allow:   []string{"kartavya_status"},
	},
}

// ExpandGroups expands group references in a tool list to their constituent tools.
func ExpandGroups(items []string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, item := range items {
		if tools, ok := ToolGroups[item]; ok {
			for _, tool := range tools {
				if !seen[tool] {
					seen[tool] = true
					result = append(result, tool)
				}
			}
			continue
		}

		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// GetProfilePolicy returns the policy for a named profile.
// Returns nil if the profile doesn't exist.
func GetProfilePolicy(name string) *Policy {
	return ToolProfiles[name]
}

// ListGroups returns all available group names.
func ListGroups() []string {
	groups := make([]string, 0, len(ToolGroups))
	for name := range ToolGroups {
		groups = append(groups, name)
	}
	return groups
}

// ListProfiles returns all available profile names.
func ListProfiles() []string {
	profiles := make([]string, 0, len(ToolProfiles))
	for name := range ToolProfiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// IsGroup returns true if the name is a valid group reference.
func IsGroup(name string) bool {
	_, ok := ToolGroups[name]
	return ok
}

// GetGroupTools returns the tools in a group, or nil if the group doesn't exist.
func GetGroupTools(name string) []string {
	tools, ok := ToolGroups[name]
	if !ok {
		return nil
	}
	result := make([]string, len(tools))
	copy(result, tools)
	return result
}

// init ensures ToolGroups is synchronized with DefaultGroups.
func init() {
	for name, tools := range ToolGroups {
		DefaultGroups[name] = tools
	}
}
