package session

import (
	"errors"
	"slices"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/vfs"
	"webdesk/pkg/wm"
)

// FileArg is the "file" argument handed to windows that show a node.
func FileArg(n *vfs.Node) map[string]any {
	return map[string]any{"id": n.ID, "name": n.Name, "mimeType": n.MimeType}
}

// OpenApp opens or focuses an application window.
func (c *Controller) OpenApp(appID string, args map[string]any) (wm.Window, error) {
	w, err := c.wm.Open(appID, args)
	if err != nil {
		return wm.Window{}, WindowError(err, appID)
	}
	return w, nil
}

// OpenFile opens a node the way a double click does. Folders open in the file
// explorer, images in the media viewer and everything else in the text
// editor. Zip archives are extracted next to themselves instead and no window
// is returned.
func (c *Controller) OpenFile(id string) (*wm.Window, error) {
	n, err := c.Node(id)
	if err != nil {
		return nil, err
	}

	var appID string
	args := map[string]any{}
	switch {
	case n.IsFolder():
		appID = wm.AppFileExplorer
		args["path"] = vfs.PathString(c.fs.Root(), id)
	case IsArchive(n):
		return nil, c.Decompress(id, "")
	case vfs.IsImageMime(n.MimeType) || vfs.IsImageName(n.Name):
		appID = wm.AppMediaViewer
		args["file"] = FileArg(n)
	default:
		appID = wm.AppTextEditor
		args["file"] = FileArg(n)
	}

	w, err := c.OpenApp(appID, args)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// OpenProperties opens a properties window for a node.
func (c *Controller) OpenProperties(id string) (wm.Window, error) {
	n, err := c.Node(id)
	if err != nil {
		return wm.Window{}, err
	}
	return c.OpenApp(wm.AppPropertiesViewer, map[string]any{"file": FileArg(n)})
}

// DockApps returns the pinned applications in dock order.
func (c *Controller) DockApps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.dock)
}

// TaskbarApps returns the pinned applications followed by running ones that
// are not pinned, in window order.
func (c *Controller) TaskbarApps() []string {
	out := c.DockApps()
	for _, w := range c.wm.Windows() {
		if !slices.Contains(out, w.AppID) {
			out = append(out, w.AppID)
		}
	}
	return out
}

// Pin adds an application to the end of the dock.
func (c *Controller) Pin(appID string) error {
	if _, ok := c.wm.Apps().Lookup(appID); !ok {
		return shellerr.NewReferenceNotFound("app", appID)
	}
	c.mu.Lock()
	if slices.Contains(c.dock, appID) {
		c.mu.Unlock()
		return nil
	}
	c.dock = append(c.dock, appID)
	dock := slices.Clone(c.dock)
	c.mu.Unlock()

	c.persistDock(dock)
	return nil
}

// Unpin removes an application from the dock.
func (c *Controller) Unpin(appID string) error {
	c.mu.Lock()
	i := slices.Index(c.dock, appID)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	c.dock = slices.Delete(c.dock, i, i+1)
	dock := slices.Clone(c.dock)
	c.mu.Unlock()

	c.persistDock(dock)
	return nil
}

// WindowError translates window manager errors into shell errors.
func WindowError(err error, ref string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wm.ErrWindowNotFound):
		return shellerr.NewReferenceNotFound("window", ref)
	case errors.Is(err, wm.ErrUnknownApp):
		return shellerr.NewReferenceNotFound("app", ref)
	case errors.Is(err, wm.ErrWindowMaximized), errors.Is(err, wm.ErrGestureEnded):
		return shellerr.NewStructuralViolation(err.Error())
	case errors.Is(err, wm.ErrInvalidDirection):
		return shellerr.NewInvalidRequest(err.Error())
	default:
		return shellerr.NewInternal(err)
	}
}
