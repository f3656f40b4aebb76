package wizard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
)

// Bridge runs the creation sequence in a background goroutine and produces
// tea.Msg values for the TUI via a channel.
type Bridge struct {
	creator   *creation.Creator
	req       creation.Request
	log       *flow.Log
	onCreated func(ledger.Principal)
	msgs      chan tea.Msg
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBridge creates a Bridge for one confirmed request. onCreated, if set,
// is called from the creation goroutine before the TUI hears about the
// instance, so callers can persist the id even if the UI goes away.
func NewBridge(creator *creation.Creator, req creation.Request, log *flow.Log, onCreated func(ledger.Principal)) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		creator:   creator,
		req:       req,
		log:       log,
		onCreated: onCreated,
		msgs:      make(chan tea.Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Cancel stops message delivery once the TUI is gone. The creation sequence
// itself always runs to the end.
func (b *Bridge) Cancel() {
	b.cancel()
}

// send delivers a message on the channel, respecting context cancellation
// to prevent deadlocks if the TUI has been shut down.
func (b *Bridge) send(msg tea.Msg) bool {
	select {
	case b.msgs <- msg:
		return true
	case <-b.ctx.Done():
		return false
	}
}

// Start launches the creation sequence in a background goroutine and
// returns a tea.Cmd that delivers the first message.
func (b *Bridge) Start() tea.Cmd {
	b.log.SetObserver(func(entries []flow.Entry) {
		b.send(EntriesMsg{Entries: entries})
	})

	b.creator.SetPreStepCallback(func(step *flow.Step, index int, total int) {
		b.send(StepStartMsg{
			StepName: step.Name,
			Explain:  step.Explain,
			Index:    index,
			Total:    total,
		})
	})

	b.creator.SetOnCreated(func(id ledger.Principal) {
		if b.onCreated != nil {
			b.onCreated(id)
		}
		b.send(InstanceCreatedMsg{ID: id})
	})

	go b.run()

	return b.NextMsg()
}

func (b *Bridge) run() {
	defer close(b.msgs)

	out := b.creator.Create(context.WithoutCancel(b.ctx), b.req, b.log)
	b.log.SetObserver(nil)
	b.send(DoneMsg{Outcome: out})
}

// NextMsg returns a tea.Cmd that waits for the next message from the channel.
func (b *Bridge) NextMsg() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.msgs
		if !ok {
			return nil
		}
		return msg
	}
}
