package build

// Test-only exports for internal helper functions.

//nolint:gochecknoglobals // Test-only exports
var (
	ResolveSourceNames = resolveSourceNames
	ResolveOutputRoot  = resolveOutputRoot
	ListSourceFiles    = listSourceFiles
	ShouldIncludeFile  = shouldIncludeFile
	RelevantEvent      = relevantEvent
)
