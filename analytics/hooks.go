package analytics

import "scorekeeper/core"

// Hook receives domain events.
type Hook interface {
	OnEvent(e core.Event)
}

// SizeObserver is implemented by hooks that report the live leaderboard size.
// The reader is backed by the store, not by the event stream.
type SizeObserver interface {
	ObserveSize(size func() int)
}

// HookFunc adapts a plain function to Hook.
type HookFunc func(e core.Event)

func (f HookFunc) OnEvent(e core.Event) { f(e) }

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook {
	b := &BridgeHook{}
	for _, h := range hooks {
		if h != nil {
			b.hooks = append(b.hooks, h)
		}
	}
	return b
}

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}
