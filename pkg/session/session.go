// Package session wires the filesystem store and the window manager to
// persistence, notifications and the archive codec.
//
// A Controller is the single writer path for both stores. Every filesystem
// change goes through one Store.Update batch, is persisted under a fixed key
// and is announced on the event bus. Archive and import work runs in
// background goroutines and lands as one batch when it completes.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"webdesk/pkg/events"
	"webdesk/pkg/hostimport"
	"webdesk/pkg/kvstore"
	"webdesk/pkg/logging"
	"webdesk/pkg/metrics"
	"webdesk/pkg/vfs"
	"webdesk/pkg/vfs/zipcodec"
	"webdesk/pkg/wm"
)

// persistTimeout bounds a single write to the key-value store.
const persistTimeout = 5 * time.Second

// Options configures a Controller. Zero fields get working defaults.
type Options struct {
	KV     kvstore.Store
	Codec  vfs.ArchiveCodec
	IDs    vfs.IDGenerator
	WM     wm.Config
	Bus    *events.Bus
	Logger *zap.Logger
	Now    func() time.Time

	Import hostimport.Options
	// ImportAllowed filters host directories for ImportHostDir. Nil allows all.
	ImportAllowed func(dir string) bool
}

// Controller owns the session state.
type Controller struct {
	fs      *vfs.Store
	wm      *wm.Manager
	kv      kvstore.Store
	codec   vfs.ArchiveCodec
	ids     vfs.IDGenerator
	bus     *events.Bus
	notes   *events.Center
	prompts *events.PromptBus
	log     *zap.Logger
	now     func() time.Time

	importOpts    hostimport.Options
	importAllowed func(string) bool

	mu        sync.Mutex
	clipboard *vfs.Node
	dock      []string

	persistMu sync.Mutex
	unsub     []func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the session from opts.KV and returns a running controller.
// Missing or unreadable state falls back to the seed tree, no windows and the
// default dock.
func New(ctx context.Context, opts Options) *Controller {
	if opts.KV == nil {
		opts.KV = kvstore.NewMemory()
	}
	if opts.Codec == nil {
		opts.Codec = zipcodec.New()
	}
	if opts.IDs == nil {
		opts.IDs = vfs.NewIDGenerator("ulid")
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("session")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		wm:            wm.NewManager(opts.WM),
		kv:            opts.KV,
		codec:         opts.Codec,
		ids:           opts.IDs,
		bus:           opts.Bus,
		notes:         events.NewCenter(opts.Bus),
		prompts:       &events.PromptBus{},
		log:           opts.Logger,
		now:           opts.Now,
		importOpts:    opts.Import,
		importAllowed: opts.ImportAllowed,
		ctx:           runCtx,
		cancel:        cancel,
	}

	c.fs = vfs.NewStore(c.loadTree(ctx))
	c.wm.Restore(c.loadWindows(ctx))
	c.dock = c.loadDock(ctx)

	metrics.SetFSNodes(c.fs.Root().Count())
	metrics.SetWindowsOpen(len(c.wm.Windows()))

	c.unsub = append(c.unsub,
		c.fs.Subscribe(func(root *vfs.Node) {
			metrics.SetFSNodes(root.Count())
			c.persistFS()
			c.bus.Publish(events.TopicFS, nil)
		}),
		c.wm.Subscribe(func(ev wm.Event) {
			metrics.RecordWindowEvent(string(ev.Type))
			metrics.SetWindowsOpen(len(c.wm.Windows()))
			c.persistWindows()
			c.bus.Publish(events.TopicWindows, ev)
		}),
	)
	return c
}

// FS returns the filesystem store. Mutate it only through the controller.
func (c *Controller) FS() *vfs.Store { return c.fs }

// WM returns the window manager.
func (c *Controller) WM() *wm.Manager { return c.wm }

// Bus returns the event bus.
func (c *Controller) Bus() *events.Bus { return c.bus }

// Notifications returns the notification center.
func (c *Controller) Notifications() *events.Center { return c.notes }

// Prompts returns the taskbar prompt bus.
func (c *Controller) Prompts() *events.PromptBus { return c.prompts }

// Root returns the current tree.
func (c *Controller) Root() *vfs.Node { return c.fs.Root() }

// Wait blocks until background archive and import work has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels background work, waits for it and detaches from the stores.
// The key-value store is left open; its owner closes it.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
	for _, fn := range c.unsub {
		fn()
	}
	c.unsub = nil
}

// Ping checks the persistence store when it supports it.
func (c *Controller) Ping(ctx context.Context) error {
	if p, ok := c.kv.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Controller) notify(title, message string) {
	c.notes.Notify(wm.AppFileExplorer, title, message)
	metrics.RecordNotification()
}

// goAsync runs fn in the background, tracked by Wait.
func (c *Controller) goAsync(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

func (c *Controller) loadTree(ctx context.Context) *vfs.Node {
	raw, ok, err := c.kv.Get(ctx, kvstore.KeyFS)
	if err != nil {
		c.log.Warn("failed to load filesystem, using seed", zap.Error(err))
		return vfs.SeedTree()
	}
	if !ok {
		return vfs.SeedTree()
	}
	var root vfs.Node
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		c.log.Warn("stored filesystem is not valid JSON, using seed", zap.Error(err))
		return vfs.SeedTree()
	}
	if err := vfs.Validate(&root); err != nil {
		c.log.Warn("stored filesystem is malformed, using seed", zap.Error(err))
		return vfs.SeedTree()
	}
	return &root
}

func (c *Controller) loadWindows(ctx context.Context) []wm.Window {
	raw, ok, err := c.kv.Get(ctx, kvstore.KeyWindows)
	if err != nil || !ok {
		if err != nil {
			c.log.Warn("failed to load windows", zap.Error(err))
		}
		return nil
	}
	var windows []wm.Window
	if err := json.Unmarshal([]byte(raw), &windows); err != nil {
		c.log.Warn("stored windows are not valid JSON", zap.Error(err))
		return nil
	}
	out := windows[:0]
	for _, w := range windows {
		if _, known := c.wm.Apps().Lookup(w.AppID); known {
			out = append(out, w)
		}
	}
	return out
}

func (c *Controller) loadDock(ctx context.Context) []string {
	raw, ok, err := c.kv.Get(ctx, kvstore.KeyDockApps)
	if err == nil && ok {
		var dock []string
		if err := json.Unmarshal([]byte(raw), &dock); err == nil {
			return dock
		}
		c.log.Warn("stored dock is not valid JSON, using defaults")
	} else if err != nil {
		c.log.Warn("failed to load dock", zap.Error(err))
	}
	return c.wm.Apps().Docked()
}

// persistFS writes the latest tree. Writes are serialized and always read the
// current root, so a slow writer never overwrites a newer tree with an older one.
func (c *Controller) persistFS() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	c.write(kvstore.KeyFS, c.fs.Root())
}

func (c *Controller) persistWindows() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	c.write(kvstore.KeyWindows, c.wm.Snapshot())
}

func (c *Controller) persistDock(dock []string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	c.write(kvstore.KeyDockApps, dock)
}

func (c *Controller) write(key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err = c.kv.Set(ctx, key, string(data))
		cancel()
	}
	metrics.RecordPersistenceWrite(key, err == nil)
	if err != nil {
		c.log.Error("failed to persist state", zap.String("key", key), zap.Error(err))
		c.notes.Notify(wm.AppSettings, "Save Failed", "Your changes could not be saved.")
		metrics.RecordNotification()
	}
}
