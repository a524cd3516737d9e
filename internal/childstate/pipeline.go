package childstate

import (
	"context"
	"hash/fnv"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/geofence"
	"custodia/internal/platform/metrics"
	"custodia/pkg/domain"
)

// ZoneSource is the external zone/containment query collaborator.
type ZoneSource interface {
	AssignedTo(ctx context.Context, childID domain.ChildID) ([]geofence.Zone, error)
}

// TransitionSink receives detected transitions after the state has been
// persisted. Implemented by the notification dispatcher.
type TransitionSink interface {
	DispatchTransition(ctx context.Context, ev geofence.TransitionEvent) error
}

// Update is one accepted coordinate queued for geofence evaluation.
type Update struct {
	ChildID domain.ChildID
	Point   geofence.Point
	At      time.Time
}

// Pipeline evaluates accepted location updates asynchronously from the
// broadcast path. Updates for one child always land on the same shard, so
// per-child FIFO ordering holds; cross-child updates run in parallel.
type Pipeline struct {
	store         Store
	zones         ZoneSource
	evaluator     *geofence.Evaluator
	sink          TransitionSink
	logger        *slog.Logger
	metrics       *metrics.Metrics
	lookupTimeout time.Duration
	shards        []chan Update
}

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	shards        int
	queueSize     int
	lookupTimeout time.Duration
}

// WithShards sets the number of evaluation workers.
func WithShards(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.shards = n
		}
	}
}

// WithQueueSize sets the per-shard buffer of pending updates.
func WithQueueSize(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithLookupTimeout bounds the zone lookup per evaluation round.
func WithLookupTimeout(d time.Duration) PipelineOption {
	return func(c *pipelineConfig) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

func NewPipeline(store Store, zones ZoneSource, evaluator *geofence.Evaluator, sink TransitionSink, logger *slog.Logger, m *metrics.Metrics, opts ...PipelineOption) *Pipeline {
	cfg := pipelineConfig{shards: 8, queueSize: 256, lookupTimeout: 3 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pipeline{
		store:         store,
		zones:         zones,
		evaluator:     evaluator,
		sink:          sink,
		logger:        logger,
		metrics:       m,
		lookupTimeout: cfg.lookupTimeout,
		shards:        make([]chan Update, cfg.shards),
	}
	for i := range p.shards {
		p.shards[i] = make(chan Update, cfg.queueSize)
	}
	return p
}

// Submit enqueues an update for evaluation without blocking the realtime
// path. A full queue drops the round (same degradation as a collaborator
// failure: the raw broadcast already happened, only this geofence check is
// lost) and returns false.
func (p *Pipeline) Submit(u Update) bool {
	shard := p.shards[p.shardFor(u.ChildID)]
	select {
	case shard <- u:
		return true
	default:
		p.metrics.EvaluationsDropped.Inc()
		p.logger.Warn("evaluation queue full, dropping round",
			"child_id", u.ChildID.String(),
		)
		return false
	}
}

// Run consumes the shard queues until ctx is canceled. A disconnecting child
// does not cancel its queued evaluations; only process shutdown stops them.
func (p *Pipeline) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range p.shards {
		shard := shard
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case u := <-shard:
					p.process(gctx, u)
				}
			}
		})
	}
	return g.Wait()
}

func (p *Pipeline) process(ctx context.Context, u Update) {
	lookupCtx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	zones, err := p.zones.AssignedTo(lookupCtx, u.ChildID)
	cancel()
	if err != nil {
		// Collaborator failure: no state mutation, no fabricated
		// transitions. The location update itself already succeeded.
		p.metrics.EvaluationFailures.Inc()
		p.logger.Warn("zone lookup failed, skipping geofence round",
			"child_id", u.ChildID.String(),
			"error", err,
		)
		return
	}

	prev, _, err := p.store.Get(ctx, u.ChildID)
	if err != nil {
		p.metrics.EvaluationFailures.Inc()
		p.logger.Error("read child state failed", "child_id", u.ChildID.String(), "error", err)
		return
	}

	res := p.evaluator.Evaluate(u.ChildID, u.Point, prev.Snapshot(), zones)

	inside := res.Current != nil
	var zoneID domain.ZoneID
	if inside {
		zoneID = res.Current.ID
	}
	// Persist before dispatching so a crash between the two retries as
	// duplicate notifications, never as a lost or doubled transition.
	if err := p.store.ApplyEvaluation(ctx, u.ChildID, inside, zoneID, u.At); err != nil {
		p.metrics.EvaluationFailures.Inc()
		p.logger.Error("persist evaluation failed", "child_id", u.ChildID.String(), "error", err)
		return
	}
	p.metrics.EvaluationsTotal.Inc()

	for _, ev := range res.Transitions {
		p.metrics.TransitionsTotal.WithLabelValues(string(ev.Kind)).Inc()
		if err := p.sink.DispatchTransition(ctx, ev); err != nil {
			p.logger.Error("transition dispatch failed",
				"child_id", ev.ChildID.String(),
				"zone_id", ev.ZoneID.String(),
				"kind", string(ev.Kind),
				"error", err,
			)
		}
	}
}

func (p *Pipeline) shardFor(childID domain.ChildID) int {
	h := fnv.New32a()
	h.Write([]byte(childID.String())) //nolint:errcheck
	return int(h.Sum32() % uint32(len(p.shards)))
}
