package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusTopicFiltering(t *testing.T) {
	bus := NewBus()
	fsCh, cancelFS := bus.Subscribe(TopicFS)
	defer cancelFS()
	allCh, cancelAll := bus.Subscribe()
	defer cancelAll()

	assert.Equal(t, 2, bus.Publish(TopicFS, "root"))
	assert.Equal(t, 1, bus.Publish(TopicWindows, nil))

	ev := <-fsCh
	assert.Equal(t, TopicFS, ev.Topic)
	assert.Equal(t, "root", ev.Payload)
	assert.Len(t, fsCh, 0)
	assert.Len(t, allCh, 2)
}

func TestBusPublishDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe(TopicFS)
	defer cancel()

	for i := 0; i < DefaultBufferSize; i++ {
		bus.Publish(TopicFS, i)
	}

	done := make(chan int)
	go func() { done <- bus.Publish(TopicFS, "overflow") }()
	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusCancelAndClose(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Subscribers())

	ch2, _ := bus.Subscribe()
	bus.Close()
	_, ok = <-ch2
	assert.False(t, ok)

	ch3, _ := bus.Subscribe()
	_, ok = <-ch3
	assert.False(t, ok)
}

func TestCenterNewestFirst(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TopicNotification)
	defer cancel()

	c := NewCenter(bus)
	c.Notify("file_explorer", "File Pasted", "a.txt")
	c.Notify("file_explorer", "Trash Emptied", "")

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Trash Emptied", list[0].Title)
	assert.Equal(t, "File Pasted", list[1].Title)
	assert.NotEqual(t, list[0].ID, list[1].ID)
	assert.Equal(t, 2, c.Unread())

	ev := <-ch
	assert.Equal(t, "File Pasted", ev.Payload.(Notification).Title)

	c.MarkAllRead()
	assert.Equal(t, 0, c.Unread())

	c.Clear()
	assert.Empty(t, c.List())
}

func TestCenterBounded(t *testing.T) {
	c := NewCenter(nil)
	for i := 0; i < DefaultMaxNotifications+5; i++ {
		c.Notify("a", "t", "m")
	}
	assert.Len(t, c.List(), DefaultMaxNotifications)
}

func TestPromptBus(t *testing.T) {
	var p PromptBus
	assert.False(t, p.Submit(PromptCommand{Prompt: "hi"}))

	var got []string
	detach, err := p.Attach(func(c PromptCommand) { got = append(got, c.Prompt) })
	require.NoError(t, err)

	_, err = p.Attach(func(PromptCommand) {})
	assert.ErrorIs(t, err, ErrPromptHandlerAttached)

	assert.True(t, p.Submit(PromptCommand{Prompt: "hello"}))
	assert.False(t, p.Submit(PromptCommand{Prompt: "   "}))
	assert.Equal(t, []string{"hello"}, got)

	detach()
	assert.False(t, p.Attached())

	detach2, err := p.Attach(func(PromptCommand) {})
	require.NoError(t, err)
	detach()
	assert.True(t, p.Attached())
	detach2()
	assert.False(t, p.Attached())
}
