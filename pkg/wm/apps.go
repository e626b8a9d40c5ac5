package wm

import (
	"sort"
	"sync"

	"webdesk/pkg/geometry"
)

// Application identifiers of the stock shell.
const (
	AppAIAssistant      = "ai_assistant"
	AppFileExplorer     = "file_explorer"
	AppTerminal         = "terminal"
	AppSettings         = "settings"
	AppTextEditor       = "text_editor"
	AppCalculator       = "calculator"
	AppBrowser          = "browser"
	AppNotes            = "notes"
	AppMediaViewer      = "media_viewer"
	AppPropertiesViewer = "properties_viewer"
)

// AppDefinition declares how windows of an application are opened.
type AppDefinition struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	DefaultSize geometry.Size `json:"defaultSize"`
	// SingleInstance apps focus their existing window instead of opening a second one.
	SingleInstance bool `json:"singleInstance"`
	// FileTitle apps are titled with the bare name of the file they show.
	FileTitle bool `json:"fileTitle,omitempty"`
	Docked    bool `json:"docked"`
}

// DefaultApps returns the stock application set.
func DefaultApps() []AppDefinition {
	return []AppDefinition{
		{ID: AppAIAssistant, Name: "AI Assistant", DefaultSize: geometry.Size{Width: 400, Height: 600}, SingleInstance: true, Docked: true},
		{ID: AppFileExplorer, Name: "File Explorer", DefaultSize: geometry.Size{Width: 700, Height: 500}, SingleInstance: true, Docked: true},
		{ID: AppTerminal, Name: "Terminal", DefaultSize: geometry.Size{Width: 600, Height: 400}, SingleInstance: true, Docked: true},
		{ID: AppSettings, Name: "Settings", DefaultSize: geometry.Size{Width: 700, Height: 500}, SingleInstance: true, Docked: true},
		{ID: AppTextEditor, Name: "Text Editor", DefaultSize: geometry.Size{Width: 600, Height: 500}, FileTitle: true, Docked: true},
		{ID: AppCalculator, Name: "Calculator", DefaultSize: geometry.Size{Width: 300, Height: 450}, SingleInstance: true},
		{ID: AppBrowser, Name: "Browser", DefaultSize: geometry.Size{Width: 800, Height: 600}, SingleInstance: true, Docked: true},
		{ID: AppNotes, Name: "Notes", DefaultSize: geometry.Size{Width: 400, Height: 500}, SingleInstance: true},
		{ID: AppMediaViewer, Name: "Media Viewer", DefaultSize: geometry.Size{Width: 600, Height: 500}},
		{ID: AppPropertiesViewer, Name: "Properties", DefaultSize: geometry.Size{Width: 350, Height: 400}},
	}
}

// AppRegistry is a concurrency-safe set of application definitions.
type AppRegistry struct {
	mu   sync.RWMutex
	apps map[string]AppDefinition
}

// NewAppRegistry creates a registry holding defs.
func NewAppRegistry(defs ...AppDefinition) *AppRegistry {
	r := &AppRegistry{apps: make(map[string]AppDefinition, len(defs))}
	for _, d := range defs {
		r.apps[d.ID] = d
	}
	return r
}

// Register adds or replaces an application definition.
func (r *AppRegistry) Register(def AppDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[def.ID] = def
}

// Lookup returns the definition for id.
func (r *AppRegistry) Lookup(id string) (AppDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.apps[id]
	return d, ok
}

// List returns all definitions sorted by id.
func (r *AppRegistry) List() []AppDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AppDefinition, 0, len(r.apps))
	for _, d := range r.apps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Docked returns the ids of applications pinned to the dock by default.
func (r *AppRegistry) Docked() []string {
	var ids []string
	for _, d := range r.List() {
		if d.Docked {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
