// Package events carries change, notification and prompt events between the
// session and its views.
//
// A Bus fans events out to channel subscribers by topic. Publishing never
// blocks: a subscriber whose buffer is full misses the event. The notification
// Center keeps the newest-first list shown in the notification panel, and a
// PromptBus delivers taskbar prompts to the one assistant view attached to it.
package events
