// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playlist Traversal - these keys govern how the playlist is walked and reloaded.
const (
	PlaylistMode         = "playlist.mode"
	PlaylistReloadAmount = "playlist.reload_amount"
	PlaylistReloadUnit   = "playlist.reload_unit"
	PlaylistMimeType     = "playlist.mime_type"
	PlaylistPrefix       = "playlist.prefix"
	PlaylistSafe         = "playlist.safe"
)

// Prefetch Buffering - these keys configure the background request pipeline.
const (
	PrefetchTargetSeconds   = "prefetch.target_seconds"
	PrefetchDefaultDuration = "prefetch.default_duration"
	PrefetchTimeout         = "prefetch.timeout"
	PrefetchConservative    = "prefetch.conservative"
)

// Duration Hint Cache - these keys configure the persisted URI duration estimates.
const (
	CacheDurationHints = "cache.duration_hints"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern non-library application behavior.
const (
	CliColored      = "cli.colored"
	CliNextN        = "cli.next_count"
	CliVersionCheck = "cli.version_check"
)

// Icons - these keys select the visual style of terminal feedback symbols.
const (
	IconsVariant = "icons.variant"
)

// History - these keys govern the persisted record of played playlist URIs.
const (
	HistorySave        = "history.save"
	HistorySuggestions = "history.suggestions"
)
