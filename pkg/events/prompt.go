package events

import (
	"errors"
	"strings"
	"sync"
)

// ErrPromptHandlerAttached is returned when a second view tries to attach.
var ErrPromptHandlerAttached = errors.New("events: prompt handler already attached")

// PromptCommand is a prompt submitted from the taskbar input.
type PromptCommand struct {
	Prompt string `json:"prompt"`
}

// PromptBus routes taskbar prompts to the assistant view. At most one handler
// is attached at a time.
type PromptBus struct {
	mu      sync.Mutex
	handler func(PromptCommand)
	token   int
}

// Attach installs fn as the handler. The returned function detaches it; it
// does nothing once another handler has taken over.
func (p *PromptBus) Attach(fn func(PromptCommand)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handler != nil {
		return nil, ErrPromptHandlerAttached
	}
	p.token++
	tok := p.token
	p.handler = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.token == tok {
			p.handler = nil
		}
	}, nil
}

// Attached reports whether a handler is attached.
func (p *PromptBus) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler != nil
}

// Submit delivers a prompt to the attached handler. Blank prompts and prompts
// sent with no handler attached are dropped and reported as false.
func (p *PromptBus) Submit(cmd PromptCommand) bool {
	if strings.TrimSpace(cmd.Prompt) == "" {
		return false
	}
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		return false
	}
	h(cmd)
	return true
}
