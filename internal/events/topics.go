package events

// Topics published by the runtime. Widgets and the TUI subscribe by
// exact topic name; an empty topic subscribes to everything.
const (
	TopicWidgetCreated     = "widget:created"
	TopicWidgetUpdated     = "widget:updated"
	TopicWidgetError       = "widget:error"
	TopicDashboardRendered = "dashboard:rendered"

	TopicPluginLoaded    = "plugin:loaded"
	TopicPluginUnloaded  = "plugin:unloaded"
	TopicManifestChanged = "manifest:changed"
	TopicSchedulerPaused = "scheduler:paused"
	TopicSchedulerResume = "scheduler:resumed"
)
