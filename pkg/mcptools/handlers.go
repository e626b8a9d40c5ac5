package mcptools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/logging"
	"webdesk/pkg/session"
	"webdesk/pkg/vfs"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	s *session.Controller
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *session.Controller) *Handlers {
	return &Handlers{s: s}
}

// SearchRequest represents the arguments for fs_search.
type SearchRequest struct {
	Query  string `json:"query"`
	Scope  string `json:"scope,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// ReadRequest represents the arguments for fs_read.
type ReadRequest struct {
	Path string `json:"path"`
}

// WriteFileRequest represents the arguments for fs_write_file.
type WriteFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ListRequest represents the arguments for fs_list.
type ListRequest struct {
	Path string `json:"path,omitempty"`
	Sort string `json:"sort,omitempty"`
	Desc bool   `json:"desc,omitempty"`
}

// SaveGeneratedRequest represents the arguments for fs_save_generated.
type SaveGeneratedRequest struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// Entry is a node as reported to the assistant. Folder children and file
// content are left out.
type Entry struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Type     vfs.NodeType `json:"type"`
	MimeType string       `json:"mime_type,omitempty"`
	Size     int64        `json:"size,omitempty"`
}

// FileOutput is the result of fs_read and fs_write_file.
type FileOutput struct {
	Entry
	Content string `json:"content"`
}

func (h *Handlers) entry(n *vfs.Node) Entry {
	return Entry{
		ID:       n.ID,
		Name:     n.Name,
		Path:     vfs.PathString(h.s.Root(), n.ID),
		Type:     n.Type,
		MimeType: n.MimeType,
		Size:     n.Size,
	}
}

// HandleSearch handles the fs_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(shellerr.NewInvalidRequest(err.Error())), nil
	}
	if input.Query == "" {
		return errorResult(shellerr.NewInvalidRequest("query is required")), nil
	}

	filter := vfs.SearchFilter(input.Filter)
	switch filter {
	case "":
		filter = vfs.FilterAll
	case vfs.FilterAll, vfs.FilterFolder, vfs.FilterText, vfs.FilterImage:
	default:
		return errorResult(shellerr.NewInvalidRequest("unknown filter: " + input.Filter)), nil
	}

	results := h.s.Search(input.Query, input.Scope, filter)
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		e := h.entry(r.Node)
		e.Path = r.Path
		entries = append(entries, e)
	}
	return successResult(map[string]any{"results": entries, "count": len(entries)})
}

// HandleRead handles the fs_read tool call.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadRequest](req)
	if err != nil {
		return errorResult(shellerr.NewInvalidRequest(err.Error())), nil
	}

	n, err := h.s.Resolve(input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	if n.IsFolder() {
		return errorResult(shellerr.NewInvalidRequest(input.Path + " is a folder; use fs_list")), nil
	}
	return successResult(FileOutput{Entry: h.entry(n), Content: n.Content})
}

// HandleWriteFile handles the fs_write_file tool call. An existing file has
// its content replaced; otherwise a new file is created in the parent folder.
func (h *Handlers) HandleWriteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WriteFileRequest](req)
	if err != nil {
		return errorResult(shellerr.NewInvalidRequest(err.Error())), nil
	}

	if existing, err := h.s.Resolve(input.Path); err == nil {
		if existing.IsFolder() {
			return errorResult(shellerr.NewStructuralViolation(input.Path + " is a folder")), nil
		}
		if err := h.s.SaveContent(existing.ID, input.Content); err != nil {
			return errorResult(err), nil
		}
		return h.fileResult(existing.ID)
	} else if !shellerr.Is(err, shellerr.ErrReferenceNotFound) {
		return errorResult(err), nil
	}

	parent, err := h.s.Resolve(vfs.Dir(input.Path))
	if err != nil {
		return errorResult(err), nil
	}
	created, err := h.s.CreateFile(parent.ID, vfs.Base(input.Path), input.Content)
	if err != nil {
		return errorResult(err), nil
	}
	logging.WithContext(ctx).Info("assistant created file", logging.NodeID(created.ID))
	return h.fileResult(created.ID)
}

func (h *Handlers) fileResult(id string) (*mcp.CallToolResult, error) {
	n, err := h.s.Node(id)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(FileOutput{Entry: h.entry(n), Content: n.Content})
}

// HandleList handles the fs_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(shellerr.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		input.Path = vfs.HomePrefix
	}
	key := vfs.SortKey(input.Sort)
	switch key {
	case "":
		key = vfs.SortByName
	case vfs.SortByName, vfs.SortBySize, vfs.SortByCreatedAt:
	default:
		return errorResult(shellerr.NewInvalidRequest("unknown sort key: " + input.Sort)), nil
	}

	folder, err := h.s.Resolve(input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	children, err := h.s.List(folder.ID, key, input.Desc)
	if err != nil {
		return errorResult(err), nil
	}
	entries := make([]Entry, 0, len(children))
	for _, c := range children {
		entries = append(entries, h.entry(c))
	}
	return successResult(map[string]any{"path": vfs.Clean(input.Path), "children": entries})
}

// HandleSaveGenerated handles the fs_save_generated tool call.
func (h *Handlers) HandleSaveGenerated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveGeneratedRequest](req)
	if err != nil {
		return errorResult(shellerr.NewInvalidRequest(err.Error())), nil
	}
	n, err := h.s.SaveGenerated(input.Content, input.Language)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(h.entry(n))
}

// Result helpers

// errorResult creates an MCP error result. Internal error details stay in
// the log.
func errorResult(err error) *mcp.CallToolResult {
	se := shellerr.As(err)
	errorObj := map[string]any{
		"code":    se.Code,
		"message": se.Message,
		"status":  se.Status,
	}
	if se.Code == shellerr.ErrInternal {
		logging.Named("mcp").Error("tool failed", logging.Err(err))
		errorObj["message"] = "an internal error occurred"
	} else if se.Details != nil {
		errorObj["details"] = se.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
