// Package mcptools exposes the session's file system to an AI assistant over
// the Model Context Protocol. Every write goes through the session, so tool
// calls are persisted and announced like any other change.
package mcptools

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"webdesk/pkg/config"
	"webdesk/pkg/session"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"fs_search": {
		def: mcp.NewTool("fs_search",
			mcp.WithDescription("Search file and folder names, and the contents of text files, below a folder"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive text to look for")),
			mcp.WithString("scope", mcp.Description("Folder path to search below, e.g. ~/Documents. Defaults to ~")),
			mcp.WithString("filter", mcp.Description("Narrow results by kind"), mcp.Enum("all", "folder", "text", "image")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"fs_read": {
		def: mcp.NewTool("fs_read",
			mcp.WithDescription("Read a file by path"),
			mcp.WithString("path", mcp.Required(), mcp.Description("File path, e.g. ~/Documents/notes.txt")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRead },
	},
	"fs_write_file": {
		def: mcp.NewTool("fs_write_file",
			mcp.WithDescription("Create a file, or replace the content of an existing one"),
			mcp.WithString("path", mcp.Required(), mcp.Description("File path; the parent folder must exist")),
			mcp.WithString("content", mcp.Required(), mcp.Description("New file content")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWriteFile },
	},
	"fs_list": {
		def: mcp.NewTool("fs_list",
			mcp.WithDescription("List the children of a folder"),
			mcp.WithString("path", mcp.Description("Folder path. Defaults to ~")),
			mcp.WithString("sort", mcp.Description("Sort key"), mcp.Enum("name", "size", "createdAt")),
			mcp.WithBoolean("desc", mcp.Description("Sort descending")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"fs_save_generated": {
		def: mcp.NewTool("fs_save_generated",
			mcp.WithDescription("Save generated text to a new file in ~/Documents and open it in the editor"),
			mcp.WithString("content", mcp.Required(), mcp.Description("Text to save")),
			mcp.WithString("language", mcp.Description("File extension such as md, go or txt. Defaults to txt")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSaveGenerated },
	},
}

// AllToolNames returns the sorted names of all tools.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the file system tools registered.
// Tools listed in cfg.DisabledTools are left out.
func NewServer(s *session.Controller, cfg *config.Config, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"webdesk",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(s)
	for name, entry := range toolRegistry {
		if cfg != nil && cfg.ToolDisabled(name) {
			continue
		}
		srv.AddTool(entry.def, entry.handler(h))
	}
	return srv
}

// Run serves the tools over stdio until the client disconnects.
func Run(s *session.Controller, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(s, cfg, version))
}
