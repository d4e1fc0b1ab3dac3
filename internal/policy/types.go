// Package policy provides tool authorization and access control for
// agents: profiles, allow/deny/require-approval rules, and groups,
// resolved into an agent.PolicyEngine decision per tool call.
package policy

import (
	"strings"
)

// Profile defines a pre-configured tool access profile that provides
// sensible defaults for common agent roles like coding, messaging, or
// full access.
type Profile string

const (
	// ProfileMinimal allows only status tools.
	ProfileMinimal Profile = "minimal"

	// ProfileCoding allows filesystem, runtime, and web tools.
	ProfileCoding Profile = "coding"

	// ProfileMessaging allows messaging tools.
	ProfileMessaging Profile = "messaging"

	// ProfileFull allows all tools (except explicitly denied).
	ProfileFull Profile = "full"
)

// Policy defines tool access rules for an agent combining a profile
// with explicit allow, deny, and require-approval lists. Deny rules
// always take precedence over allow rules; require-approval only
// applies to tools that are otherwise allowed.
type Policy struct {
	// Profile is a pre-configured access level.
	Profile Profile `json:"profile,omitempty" yaml:"profile"`

	// Allow explicitly allows these tools (in addition to profile).
	Allow []string `json:"allow,omitempty" yaml:"allow"`

	// Deny explicitly denies these tools (overrides allow).
	Deny []string `json:"deny,omitempty" yaml:"deny"`

	// RequireApproval lists allowed tools (or group/pattern references)
	// that must still be confirmed through an Approver before running.
	RequireApproval []string `json:"require_approval,omitempty" yaml:"require_approval,omitempty"`

	// ByProvider applies additional policy rules scoped to a tool
	// source. For tools delegated to an external source reachable
	// through Samiti, the key is "ext:<source>". For built-in tools,
	// the key is "native".
	ByProvider map[string]*Policy `json:"by_provider,omitempty" yaml:"by_provider,omitempty"`
}

// ToolGroup defines a named group of tools for convenient bulk permissions.
type ToolGroup struct {
	Name  string
	Tools []string
}

// DefaultGroups are the built-in tool groups. Groups can be referenced
// in policies using their key (e.g., "group:fs").
var DefaultGroups = map[string][]string{
	// Filesystem tools
	"group:fs": {"read_file", "write_file", "edit_file"},

	// Web tools
	"group:web": {"web_search", "web_fetch"},

	// Runtime/execution tools
	"group:runtime": {"shell"},

	// Memory tools
	"group:memory": {"memory_search", "memory_get"},

	// Messaging tools - publish to Samiti topics or notify a user
	"group:messaging": {"notify", "samiti_publish"},

	// Kartavya scheduling and status tools
	"group:jobs": {"kartavya_status", "kartavya_cancel"},

	// All built-in native tools
	"group:native": {
		"read_file", "write_file", "edit_file",
		"web_search", "web_fetch",
		"shell",
		"memory_search", "memory_get",
		"notify", "samiti_publish",
		"kartavya_status", "kartavya_cancel",
	},

	// External tools: this group stays empty; Resolver.RegisterExternalSource
	// adds a separate "ext:<sourceID>" group per source instead.
	// Use "ext:*" in policies to allow all external tools
	// Use "ext:sourceID.*" to allow all tools from a specific source
	// Use "ext:sourceID.toolName" for a specific tool
	"group:ext": {},

	// All tools (native + external)
	// Note: this is a marker group; actual resolution uses ProfileFull
	"group:all": {},
}

// ProfileDefaults defines the default allow lists for each profile.
var ProfileDefaults = map[Profile]*Policy{
	ProfileMinimal: {
		Allow: []string{"kartavya_status"},
	},
	ProfileCoding: {
		Allow: []string{"group:fs", "group:runtime", "group:web", "group:memory"},
	},
	ProfileMessaging: {
		Allow: []string{"group:messaging", "kartavya_status"},
	},
	ProfileFull: {
		// Full profile allows everything not explicitly denied
	},
}

// ToolAliases maps alternative names to canonical tool names.
var ToolAliases = map[string]string{
	"bash":        "shell",
	"sh":          "shell",
	"read":        "read_file",
	"write":       "write_file",
	"edit":        "edit_file",
	"apply-patch": "edit_file",
	"apply_patch": "edit_file",
	"search":      "web_search",
	"fetch":       "web_fetch",
	"notify_user": "notify",
}

// NormalizeTool normalizes a tool name to its canonical form by converting
// to lowercase and resolving known aliases.
func NormalizeTool(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := ToolAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// NormalizeTools normalizes a list of tool names to their canonical forms.
func NormalizeTools(names []string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		normalized := NormalizeTool(name)
		if normalized != "" {
			result = append(result, normalized)
		}
	}
	return result
}

// UnifiedPolicyBuilder provides a fluent interface for building policies
// that work consistently across native and external tools.
type UnifiedPolicyBuilder struct {
	policy *Policy
}

// NewUnifiedPolicy creates a new unified policy builder.
func NewUnifiedPolicy() *UnifiedPolicyBuilder {
	return &UnifiedPolicyBuilder{
		policy: &Policy{},
	}
}

// WithProfile sets the base profile.
func (b *UnifiedPolicyBuilder) WithProfile(profile Profile) *UnifiedPolicyBuilder {
	b.policy.Profile = profile
	return b
}

// AllowNative allows native (built-in) tools.
func (b *UnifiedPolicyBuilder) AllowNative(tools ...string) *UnifiedPolicyBuilder {
	for _, t := range tools {
		b.policy.Allow = append(b.policy.Allow, NormalizeTool(t))
	}
	return b
}

// AllowNativeGroup allows a native tool group (e.g., "fs", "web").
func (b *UnifiedPolicyBuilder) AllowNativeGroup(groups ...string) *UnifiedPolicyBuilder {
	for _, g := range groups {
		if !strings.HasPrefix(g, "group:") {
			g = "group:" + g
		}
		b.policy.Allow = append(b.policy.Allow, g)
	}
	return b
}

// AllowExternalSource allows all tools from an external source.
func (b *UnifiedPolicyBuilder) AllowExternalSource(sourceIDs ...string) *UnifiedPolicyBuilder {
	for _, id := range sourceIDs {
		b.policy.Allow = append(b.policy.Allow, "ext:"+id+".*")
	}
	return b
}

// AllowExternalTool allows a specific tool from an external source.
func (b *UnifiedPolicyBuilder) AllowExternalTool(sourceID, toolName string) *UnifiedPolicyBuilder {
	b.policy.Allow = append(b.policy.Allow, "ext:"+sourceID+"."+toolName)
	return b
}

// AllowAllExternal allows every external tool.
func (b *UnifiedPolicyBuilder) AllowAllExternal() *UnifiedPolicyBuilder {
	b.policy.Allow = append(b.policy.Allow, "ext:*")
	return b
}

// RequireApprovalFor marks tools (or group/pattern references) as
// needing approval even when otherwise allowed.
func (b *UnifiedPolicyBuilder) RequireApprovalFor(tools ...string) *UnifiedPolicyBuilder {
	b.policy.RequireApproval = append(b.policy.RequireApproval, tools...)
	return b
}

// DenyNative denies native (built-in) tools.
func (b *UnifiedPolicyBuilder) DenyNative(tools ...string) *UnifiedPolicyBuilder {
	for _, t := range tools {
		b.policy.Deny = append(b.policy.Deny, NormalizeTool(t))
	}
	return b
}

// DenyExternalSource denies all tools from an external source.
func (b *UnifiedPolicyBuilder) DenyExternalSource(sourceIDs ...string) *UnifiedPolicyBuilder {
	for _, id := range sourceIDs {
		b.policy.Deny = append(b.policy.Deny, "ext:"+id+".*")
	}
	return b
}

// DenyExternalTool denies a specific tool from an external source.
func (b *UnifiedPolicyBuilder) DenyExternalTool(sourceID, toolName string) *UnifiedPolicyBuilder {
	b.policy.Deny = append(b.policy.Deny, "ext:"+sourceID+"."+toolName)
	return b
}

// WithExternalSourcePolicy sets provider-specific policy for an external source.
func (b *UnifiedPolicyBuilder) WithExternalSourcePolicy(sourceID string, policy *Policy) *UnifiedPolicyBuilder {
	if b.policy.ByProvider == nil {
		b.policy.ByProvider = make(map[string]*Policy)
	}
	b.policy.ByProvider["ext:"+sourceID] = policy
	return b
}

// WithNativePolicy sets provider-specific policy for native tools.
func (b *UnifiedPolicyBuilder) WithNativePolicy(policy *Policy) *UnifiedPolicyBuilder {
	if b.policy.ByProvider == nil {
		b.policy.ByProvider = make(map[string]*Policy)
	}
	b.policy.ByProvider["native"] = policy
	return b
}

// Build returns the constructed policy.
func (b *UnifiedPolicyBuilder) Build() *Policy {
	return b.policy
}

// IsExternalTool returns true if the tool name refers to a tool
// delegated to an external source.
func IsExternalTool(toolName string) bool {
	normalized := strings.ToLower(strings.TrimSpace(toolName))
	return strings.HasPrefix(normalized, "ext:") || strings.HasPrefix(normalized, "ext.")
}

// ParseExternalToolName extracts the source ID and tool name from an
// external tool reference. Returns empty strings if the tool name does
// not refer to an external tool.
func ParseExternalToolName(toolName string) (sourceID, tool string) {
	normalized := strings.ToLower(strings.TrimSpace(toolName))

	var trimmed string
	if strings.HasPrefix(normalized, "ext:") {
		trimmed = strings.TrimPrefix(normalized, "ext:")
	} else if strings.HasPrefix(normalized, "ext.") {
		trimmed = strings.TrimPrefix(normalized, "ext.")
	} else {
		return "", ""
	}

	parts := strings.SplitN(trimmed, ".", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
