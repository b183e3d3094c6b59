// Package pipeline is the orchestration core of the dashboard: a state
// machine that turns one analysis request into a prediction, a report
// upload, notifications, insight cards and a ready chat assistant.
//
// All transitions run under one mutex. Collaborator calls run in tracked
// goroutines and apply their outcome only while the generation (and, for
// insights, the request sequence) they captured is still current.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"predictive_maintenance/internal/logger"
	"predictive_maintenance/internal/models"
)

// guards remember the generation for which a once-per-result action fired.
// A bumped generation resets all of them.
type guards struct {
	upload uint64
	email  uint64
	chat   uint64
}

type Pipeline struct {
	deps     Deps
	opts     Options
	log      *logger.Logger
	verifier *emailverifier.Verifier
	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	gen        uint64
	insightSeq uint64
	guards     guards
	nearest    string
	state      Snapshot
	notices    *ttlcache.Cache[string, models.Notice]
	subs       map[chan Snapshot]struct{}
	pending    []models.PipelineEvent
}

func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Predictor == nil || deps.Insights == nil || deps.Renderer == nil ||
		deps.Store == nil || deps.Alerts == nil || deps.Mailer == nil || deps.Chat == nil {
		return nil, errors.New("pipeline: missing collaborator")
	}
	opts.setDefaults()
	if err := opts.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		deps:     deps,
		opts:     opts,
		log:      opts.Logger,
		verifier: emailverifier.NewVerifier(),
		validate: validator.New(),
		ctx:      ctx,
		cancel:   cancel,
		state:    initialState(0, PhaseIdle, opts.Now().UTC()),
		notices: ttlcache.New[string, models.Notice](
			ttlcache.WithTTL[string, models.Notice](opts.NoticeTTL),
			ttlcache.WithDisableTouchOnHit[string, models.Notice](),
		),
		subs: make(map[chan Snapshot]struct{}),
	}, nil
}

// Snapshot returns a deep copy of the current state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest snapshot. A slow
// reader only ever misses intermediate snapshots. Call cancel to unsubscribe.
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	ch <- p.snapshotLocked()
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
			p.mu.Unlock()
		})
	}
}

// Run sweeps expired notices every tick until ctx is canceled.
func (p *Pipeline) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.mu.Lock()
			before := p.notices.Len()
			p.notices.DeleteExpired()
			if p.notices.Len() != before {
				p.publishLocked()
			}
			p.mu.Unlock()
		}
	}
}

// Wait blocks until every in-flight task has settled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close cancels in-flight tasks, waits for them and closes subscriptions.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	for ch := range p.subs {
		delete(p.subs, ch)
		close(ch)
	}
	events := p.takeEventsLocked()
	p.mu.Unlock()
	p.flush(events)
}

func (p *Pipeline) snapshotLocked() Snapshot {
	s := p.state.clone()
	s.Notices = p.liveNoticesLocked()
	return s
}

func (p *Pipeline) liveNoticesLocked() []models.Notice {
	items := p.notices.Items()
	out := make([]models.Notice, 0, len(items))
	for _, it := range items {
		if it.IsExpired() {
			continue
		}
		out = append(out, it.Value())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// publishLocked stamps the state and pushes it to every subscriber without
// blocking: a full channel has its stale snapshot replaced.
func (p *Pipeline) publishLocked() {
	p.state.UpdatedAt = p.opts.Now().UTC()
	if len(p.subs) == 0 {
		return
	}
	snap := p.snapshotLocked()
	for ch := range p.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// commit publishes, releases the lock and writes queued audit events.
func (p *Pipeline) commit() {
	p.publishLocked()
	events := p.takeEventsLocked()
	p.mu.Unlock()
	p.flush(events)
}

// commitSnapshot is commit that also returns the published state.
func (p *Pipeline) commitSnapshot() Snapshot {
	p.publishLocked()
	snap := p.snapshotLocked()
	events := p.takeEventsLocked()
	p.mu.Unlock()
	p.flush(events)
	return snap
}

func (p *Pipeline) notifyLocked(kind models.NoticeKind, source, msg string) {
	n := models.Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Message:   msg,
		CreatedAt: p.opts.Now().UTC(),
	}
	p.notices.Set(n.ID, n, ttlcache.DefaultTTL)
}

// DismissNotice removes a notice before it expires.
func (p *Pipeline) DismissNotice(id string) bool {
	p.mu.Lock()
	if !p.notices.Has(id) {
		p.mu.Unlock()
		return false
	}
	p.notices.Delete(id)
	p.commit()
	return true
}

func (p *Pipeline) recordLocked(gen uint64, typ, desc string, meta any) {
	if p.deps.Events == nil {
		return
	}
	p.pending = append(p.pending, models.PipelineEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  p.opts.Now().UTC(),
		Type:        typ,
		Generation:  gen,
		Description: desc,
		Metadata:    meta,
	})
}

func (p *Pipeline) takeEventsLocked() []models.PipelineEvent {
	events := p.pending
	p.pending = nil
	return events
}

func (p *Pipeline) flush(events []models.PipelineEvent) {
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.TaskTimeout)
	defer cancel()
	for _, ev := range events {
		if err := p.deps.Events.Append(ctx, ev); err != nil {
			p.log.Warnw("pipeline_event_append_failed", "err", err, "type", ev.Type, "generation", ev.Generation)
		}
	}
}

// spawnLocked starts a tracked task bounded by the task timeout.
func (p *Pipeline) spawnLocked(name string, fn func(ctx context.Context)) {
	if p.closed {
		p.log.Debugw("pipeline_task_skipped", "task", name, "reason", "closed")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.opts.TaskTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (p *Pipeline) currentLocked(gen uint64) bool {
	return gen == p.gen && p.state.Result != nil
}
