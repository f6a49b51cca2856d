package scorekit

import (
	"context"
	"log/slog"

	"scorekeeper/adapters/memory"
	"scorekeeper/analytics"
	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/realtime"
)

// Option configures the score service builder.
type Option func(*config)

type config struct {
	storage    engine.Storage
	mode       engine.DispatchMode
	rules      engine.RuleEngine
	hub        *realtime.Hub
	hooks      []analytics.Hook
	allowClear bool
	logger     *slog.Logger
}

// WithStorage sets the score store.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithRuleEngine sets the rule engine.
func WithRuleEngine(r engine.RuleEngine) Option { return func(c *config) { c.rules = r } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks forwards every event to the given hooks (metrics, webhooks).
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithClearAllowed sets the clear policy.
func WithClearAllowed(allow bool) Option { return func(c *config) { c.allowClear = allow } }

// WithLogger logs every event at debug level.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// New builds a configured ScoreService. If not provided, defaults are used:
//   - storage: in-memory skip list store
//   - rules: DefaultRuleEngine
//   - dispatch: async
//   - clear: allowed
func New(opts ...Option) *engine.ScoreService {
	cfg := &config{mode: engine.DispatchAsync, rules: engine.DefaultRuleEngine(), allowClear: true}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewScoreService(cfg.storage, bus, cfg.rules, engine.WithClearAllowed(cfg.allowClear))

	if cfg.hub != nil {
		bus.SubscribeAll(cfg.hub.Broadcast)
	}
	if len(cfg.hooks) > 0 {
		bridge := analytics.NewBridge(cfg.hooks...)
		bus.SubscribeAll(func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
		for _, h := range cfg.hooks {
			if o, ok := h.(analytics.SizeObserver); ok {
				o.ObserveSize(boardSize(svc))
			}
		}
	}
	if cfg.logger != nil {
		logger := cfg.logger
		bus.SubscribeAll(func(ctx context.Context, e core.Event) {
			attrs := []any{"event_id", e.ID, "type", e.Type}
			if e.Entry != nil {
				attrs = append(attrs, "entry_id", e.Entry.ID, "rank", e.Entry.Rank)
			}
			logger.DebugContext(ctx, "event", attrs...)
		})
	}
	return svc
}

// boardSize reads the entry count straight from the store.
func boardSize(svc *engine.ScoreService) func() int {
	return func() int {
		st, err := svc.Stats(context.Background())
		if err != nil {
			return 0
		}
		return st.TotalGames
	}
}
