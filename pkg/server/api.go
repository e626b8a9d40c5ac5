package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/events"
	"webdesk/pkg/geometry"
	"webdesk/pkg/logging"
	"webdesk/pkg/preview"
	"webdesk/pkg/router"
	"webdesk/pkg/session"
	"webdesk/pkg/vfs"
	"webdesk/pkg/websocket"
	"webdesk/pkg/wm"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/api/v1"

type api struct {
	s   *session.Controller
	now func() time.Time
}

func (a *api) register(r *router.Router, timeout router.Middleware) {
	h := func(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
		return router.Handler(func(w http.ResponseWriter, req *http.Request) {
			if err := fn(w, req); err != nil {
				writeError(w, req, err)
			}
		})
	}
	p := func(path string) string { return APIPrefix + path }

	r.GET(p("/fs"), h(a.tree), timeout)
	r.GET(p("/fs/resolve"), h(a.resolve), timeout)
	r.GET(p("/fs/search"), h(a.search), timeout)
	r.GET(p("/fs/raw/*"), h(a.raw), timeout)
	r.POST(p("/fs/nodes"), h(a.createNode), timeout)
	r.GET(p("/fs/nodes/:id"), h(a.getNode), timeout)
	r.PATCH(p("/fs/nodes/:id"), h(a.updateNode), timeout)
	r.DELETE(p("/fs/nodes/:id"), h(a.deleteNode), timeout)
	r.GET(p("/fs/nodes/:id/children"), h(a.children), timeout)
	r.POST(p("/fs/nodes/:id/trash"), h(a.trash), timeout)
	r.POST(p("/fs/nodes/:id/restore"), h(a.restore), timeout)
	r.POST(p("/fs/nodes/:id/copy"), h(a.copy), timeout)
	r.POST(p("/fs/nodes/:id/open"), h(a.openNode), timeout)
	r.POST(p("/fs/nodes/:id/decompress"), h(a.decompress), timeout)
	r.POST(p("/fs/nodes/:id/compress"), h(a.compress), timeout)
	r.GET(p("/fs/nodes/:id/preview"), h(a.preview), timeout)
	r.GET(p("/fs/nodes/:id/properties"), h(a.properties), timeout)
	r.POST(p("/fs/paste"), h(a.paste), timeout)
	r.POST(p("/fs/trash/empty"), h(a.emptyTrash), timeout)
	r.POST(p("/fs/import"), h(a.importDir), timeout)
	r.POST(p("/fs/generated"), h(a.saveGenerated), timeout)

	r.GET(p("/apps"), h(a.apps), timeout)
	r.GET(p("/windows"), h(a.windows), timeout)
	r.POST(p("/windows"), h(a.openWindow), timeout)
	r.GET(p("/windows/:id"), h(a.getWindow), timeout)
	r.PATCH(p("/windows/:id"), h(a.updateWindow), timeout)
	r.POST(p("/windows/:id/focus"), h(a.windowAction(a.s.WM().Focus)), timeout)
	r.POST(p("/windows/:id/minimize"), h(a.windowAction(a.s.WM().Minimize)), timeout)
	r.POST(p("/windows/:id/maximize"), h(a.windowAction(a.s.WM().ToggleMaximize)), timeout)
	r.POST(p("/windows/:id/close"), h(a.closeWindow), timeout)
	r.POST(p("/windows/:id/drag"), h(a.gesture(wm.GestureDrag)), timeout)
	r.POST(p("/windows/:id/resize"), h(a.gesture(wm.GestureResize)), timeout)

	r.GET(p("/dock"), h(a.dock), timeout)
	r.PUT(p("/dock/:appId"), h(a.pin), timeout)
	r.DELETE(p("/dock/:appId"), h(a.unpin), timeout)

	r.GET(p("/notifications"), h(a.notifications), timeout)
	r.POST(p("/notifications/read"), h(a.markRead), timeout)
	r.DELETE(p("/notifications"), h(a.clearNotifications), timeout)

	r.POST(p("/prompt"), h(a.prompt), timeout)

	// Streams outlive the request timeout.
	r.GET(p("/events"), http.HandlerFunc(a.events))
	r.GET(p("/ws"), http.HandlerFunc(a.socket))
}

// writeError renders err as a coded JSON error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	se := shellerr.As(err)
	log := logging.WithContext(r.Context())
	if se.Status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", string(se.Code)), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("code", string(se.Code)), zap.String("message", se.Message))
	}
	writeJSON(w, se.Status, map[string]any{"error": se})
}

func errNotFound(path string) error {
	return shellerr.NewReferenceNotFound("route", path)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return shellerr.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return shellerr.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// File system

func (a *api) tree(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, a.s.Root())
	return nil
}

func (a *api) resolve(w http.ResponseWriter, r *http.Request) error {
	n, err := a.s.Resolve(r.URL.Query().Get("path"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, n)
	return nil
}

func (a *api) search(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := vfs.SearchFilter(q.Get("filter"))
	switch filter {
	case "":
		filter = vfs.FilterAll
	case vfs.FilterAll, vfs.FilterFolder, vfs.FilterText, vfs.FilterImage:
	default:
		return shellerr.NewInvalidRequest("unknown filter: " + string(filter))
	}
	results := a.s.Search(q.Get("q"), q.Get("scope"), filter)
	if results == nil {
		results = []vfs.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
	return nil
}

// raw serves a file's content by home-relative path with range support.
func (a *api) raw(w http.ResponseWriter, r *http.Request) error {
	name := strings.Trim(router.Param(r.Context(), "wildcard"), "/")
	if name == "" {
		name = "."
	}
	fsys := vfs.NewFS(a.s.Root())
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return shellerr.NewReferenceNotFound("path", vfs.Clean(name))
	}
	if info.IsDir() {
		return shellerr.NewInvalidRequest(vfs.Clean(name) + " is a folder")
	}

	f, err := fsys.Open(name)
	if err != nil {
		return shellerr.NewInternal(err)
	}
	defer f.Close()

	if n, ok := info.Sys().(*vfs.Node); ok && n.MimeType != "" {
		w.Header().Set("Content-Type", n.MimeType)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f.(io.ReadSeeker))
	return nil
}

type createNodeRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

func (a *api) createNode(w http.ResponseWriter, r *http.Request) error {
	var req createNodeRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	var (
		n   *vfs.Node
		err error
	)
	switch vfs.NodeType(req.Type) {
	case vfs.NodeFolder:
		n, err = a.s.CreateFolder(req.ParentID, req.Name)
	case vfs.NodeFile:
		n, err = a.s.CreateFile(req.ParentID, req.Name, req.Content)
	default:
		return shellerr.NewInvalidRequest(`type must be "file" or "folder"`)
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, n)
	return nil
}

func (a *api) getNode(w http.ResponseWriter, r *http.Request) error {
	n, err := a.s.Node(router.Param(r.Context(), "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, n)
	return nil
}

type updateNodeRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

func (a *api) updateNode(w http.ResponseWriter, r *http.Request) error {
	id := router.Param(r.Context(), "id")
	var req updateNodeRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Content == nil {
		return shellerr.NewInvalidRequest("nothing to update")
	}
	if req.Name != nil {
		if err := a.s.Rename(id, *req.Name); err != nil {
			return err
		}
	}
	if req.Content != nil {
		if err := a.s.SaveContent(id, *req.Content); err != nil {
			return err
		}
	}
	return a.getNode(w, r)
}

func (a *api) deleteNode(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.DeletePermanently(router.Param(r.Context(), "id"), confirmed(r)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *api) children(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	key := vfs.SortKey(q.Get("sort"))
	switch key {
	case "":
		key = vfs.SortByName
	case vfs.SortByName, vfs.SortBySize, vfs.SortByCreatedAt:
	default:
		return shellerr.NewInvalidRequest("unknown sort key: " + string(key))
	}
	desc, _ := strconv.ParseBool(q.Get("desc"))

	nodes, err := a.s.List(router.Param(r.Context(), "id"), key, desc)
	if err != nil {
		return err
	}
	if nodes == nil {
		nodes = []*vfs.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": nodes})
	return nil
}

func (a *api) trash(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.MoveToTrash(router.Param(r.Context(), "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *api) restore(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.Restore(router.Param(r.Context(), "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *api) copy(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.Copy(router.Param(r.Context(), "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type destinationRequest struct {
	DestinationID string `json:"destinationId"`
}

func (a *api) paste(w http.ResponseWriter, r *http.Request) error {
	var req destinationRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	n, err := a.s.Paste(req.DestinationID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, n)
	return nil
}

func (a *api) openNode(w http.ResponseWriter, r *http.Request) error {
	win, err := a.s.OpenFile(router.Param(r.Context(), "id"))
	if err != nil {
		return err
	}
	if win == nil {
		// Archives extract in the background instead of opening.
		w.WriteHeader(http.StatusAccepted)
		return nil
	}
	writeJSON(w, http.StatusOK, win)
	return nil
}

func (a *api) decompress(w http.ResponseWriter, r *http.Request) error {
	var req destinationRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := a.s.Decompress(router.Param(r.Context(), "id"), req.DestinationID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

func (a *api) compress(w http.ResponseWriter, r *http.Request) error {
	var req destinationRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := a.s.Compress(router.Param(r.Context(), "id"), req.DestinationID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

func (a *api) preview(w http.ResponseWriter, r *http.Request) error {
	n, err := a.s.Node(router.Param(r.Context(), "id"))
	if err != nil {
		return err
	}
	p, err := preview.Render(n)
	if err != nil {
		return shellerr.NewInternal(err)
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

func (a *api) properties(w http.ResponseWriter, r *http.Request) error {
	id := router.Param(r.Context(), "id")
	props, ok := preview.PropertiesOf(a.s.Root(), id, a.now())
	if !ok {
		return shellerr.NewReferenceNotFound("node", id)
	}
	writeJSON(w, http.StatusOK, props)
	return nil
}

func (a *api) emptyTrash(w http.ResponseWriter, r *http.Request) error {
	emptied, err := a.s.EmptyTrash(confirmed(r))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]bool{"emptied": emptied})
	return nil
}

type importRequest struct {
	Dir           string `json:"dir"`
	DestinationID string `json:"destinationId"`
}

func (a *api) importDir(w http.ResponseWriter, r *http.Request) error {
	var req importRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := a.s.ImportHostDir(req.Dir, req.DestinationID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

type generatedRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

func (a *api) saveGenerated(w http.ResponseWriter, r *http.Request) error {
	var req generatedRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	n, err := a.s.SaveGenerated(req.Content, req.Language)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, n)
	return nil
}

// Windows

func (a *api) apps(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{"apps": a.s.WM().Apps().List()})
	return nil
}

func (a *api) windows(w http.ResponseWriter, r *http.Request) error {
	m := a.s.WM()
	writeJSON(w, http.StatusOK, map[string]any{
		"windows":  m.Windows(),
		"activeId": m.Active(),
	})
	return nil
}

type openWindowRequest struct {
	AppID  string         `json:"appId"`
	Args   map[string]any `json:"args"`
	FileID string         `json:"fileId"`
}

func (a *api) openWindow(w http.ResponseWriter, r *http.Request) error {
	var req openWindowRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.AppID == "" {
		return shellerr.NewInvalidRequest("appId is required")
	}
	if req.FileID != "" {
		n, err := a.s.Node(req.FileID)
		if err != nil {
			return err
		}
		if req.Args == nil {
			req.Args = map[string]any{}
		}
		req.Args["file"] = session.FileArg(n)
	}
	win, err := a.s.OpenApp(req.AppID, req.Args)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, win)
	return nil
}

func (a *api) writeWindow(w http.ResponseWriter, id string) error {
	win, err := a.s.WM().Get(id)
	if err != nil {
		return session.WindowError(err, id)
	}
	writeJSON(w, http.StatusOK, win)
	return nil
}

func (a *api) getWindow(w http.ResponseWriter, r *http.Request) error {
	return a.writeWindow(w, router.Param(r.Context(), "id"))
}

func (a *api) updateWindow(w http.ResponseWriter, r *http.Request) error {
	id := router.Param(r.Context(), "id")
	var upd wm.GeometryUpdate
	if err := decode(r, &upd); err != nil {
		return err
	}
	if err := a.s.WM().UpdateGeometry(id, upd); err != nil {
		return session.WindowError(err, id)
	}
	return a.writeWindow(w, id)
}

func (a *api) windowAction(fn func(id string) error) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		id := router.Param(r.Context(), "id")
		if err := fn(id); err != nil {
			return session.WindowError(err, id)
		}
		return a.writeWindow(w, id)
	}
}

func (a *api) closeWindow(w http.ResponseWriter, r *http.Request) error {
	id := router.Param(r.Context(), "id")
	if err := a.s.WM().Close(id); err != nil {
		return session.WindowError(err, id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Gesture phases.
const (
	phaseBegin  = "begin"
	phaseUpdate = "update"
	phaseEnd    = "end"
)

type gestureRequest struct {
	Phase     string `json:"phase"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction,omitempty"`
}

// gesture drives a drag or resize across requests. The manager keeps the
// live gesture per window, so each request only carries the pointer sample.
func (a *api) gesture(kind wm.GestureKind) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		id := router.Param(r.Context(), "id")
		var req gestureRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		m := a.s.WM()
		pointer := geometry.Point{X: req.X, Y: req.Y}

		switch req.Phase {
		case phaseBegin:
			var err error
			if kind == wm.GestureResize {
				dir, ok := geometry.ParseDirection(req.Direction)
				if !ok {
					return shellerr.NewInvalidRequest("unknown resize direction: " + req.Direction)
				}
				_, err = m.BeginResize(id, dir, pointer)
			} else {
				_, err = m.BeginDrag(id, pointer)
			}
			if err != nil {
				return session.WindowError(err, id)
			}
		case phaseUpdate, phaseEnd:
			g, ok := m.ActiveGesture(id)
			if !ok || g.Kind != kind {
				return shellerr.NewStructuralViolation(fmt.Sprintf("no %s in progress on window %s", kind, id))
			}
			if err := m.UpdateGesture(g, pointer); err != nil {
				return session.WindowError(err, id)
			}
			if req.Phase == phaseEnd {
				m.EndGesture(g)
			}
		default:
			return shellerr.NewInvalidRequest(`phase must be "begin", "update" or "end"`)
		}
		return a.writeWindow(w, id)
	}
}

// Dock

func (a *api) dock(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"dock":    a.s.DockApps(),
		"taskbar": a.s.TaskbarApps(),
	})
	return nil
}

func (a *api) pin(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.Pin(router.Param(r.Context(), "appId")); err != nil {
		return err
	}
	return a.dock(w, r)
}

func (a *api) unpin(w http.ResponseWriter, r *http.Request) error {
	if err := a.s.Unpin(router.Param(r.Context(), "appId")); err != nil {
		return err
	}
	return a.dock(w, r)
}

// Notifications

func (a *api) notifications(w http.ResponseWriter, r *http.Request) error {
	c := a.s.Notifications()
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": c.List(),
		"unread":        c.Unread(),
	})
	return nil
}

func (a *api) markRead(w http.ResponseWriter, r *http.Request) error {
	a.s.Notifications().MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *api) clearNotifications(w http.ResponseWriter, r *http.Request) error {
	a.s.Notifications().Clear()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *api) prompt(w http.ResponseWriter, r *http.Request) error {
	var cmd events.PromptCommand
	if err := decode(r, &cmd); err != nil {
		return err
	}
	if !a.s.Prompts().Submit(cmd) {
		if !a.s.Prompts().Attached() {
			return shellerr.NewCollaboratorFailure("assistant", nil)
		}
		return shellerr.NewInvalidRequest("prompt is empty")
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// events streams bus events as server-sent events until the client leaves.
func (a *api) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, shellerr.NewInternal(errors.New("streaming unsupported")))
		return
	}

	var topics []events.Topic
	for _, t := range r.URL.Query()["topic"] {
		topics = append(topics, events.Topic(t))
	}
	ch, cancel := a.s.Bus().Subscribe(topics...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := logging.WithContext(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Warn("dropping unencodable event", zap.String("topic", string(ev.Topic)), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// socket pushes bus events over a WebSocket and reads taskbar prompts back.
func (a *api) socket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		var he *websocket.HandshakeError
		switch {
		case !errors.As(err, &he):
			logging.WithContext(r.Context()).Debug("websocket handshake failed", zap.Error(err))
		case he.Status >= http.StatusInternalServerError:
			writeError(w, r, shellerr.NewInternal(err))
		default:
			writeError(w, r, shellerr.NewInvalidRequest(he.Error()))
		}
		return
	}

	log := logging.WithContext(r.Context()).With(zap.Stringer("remote", conn.RemoteAddr()))
	ch, cancel := a.s.Bus().Subscribe()
	defer cancel()

	go a.readPrompts(conn, log)

	for {
		select {
		case <-conn.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.CloseGoingAway, "shutting down")
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				conn.Close(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}

func (a *api) readPrompts(conn *websocket.Conn, log *zap.Logger) {
	for {
		op, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if op != websocket.OpcodeText {
			conn.Close(websocket.CloseUnsupportedData, "text frames only")
			return
		}
		var cmd events.PromptCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Debug("ignoring malformed websocket message", zap.Error(err))
			continue
		}
		if !a.s.Prompts().Submit(cmd) {
			log.Debug("prompt not delivered", zap.Bool("attached", a.s.Prompts().Attached()))
		}
	}
}
