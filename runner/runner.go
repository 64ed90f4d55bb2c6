// Package runner drives conversation turns end to end: it loads the
// conversation, runs the turn through the middleware chain and the engine,
// persists the result and archives new itineraries. Turns of different
// conversations run concurrently; turns of one conversation are serialised.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/sweetpotato0/voyager/archive"
	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/engine"
	"github.com/sweetpotato0/voyager/middleware"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/session"
	"github.com/sweetpotato0/voyager/state"
)

const defaultMaxConcurrency = 10

// Response is what a caller gets back from one turn.
type Response struct {
	ConversationID string
	// Created is true when the turn started a new conversation.
	Created bool
	Replies []string
	Stage   state.Stage
	// Offer and Itinerary are the conversation's offer and plan as this
	// turn left them.
	Offer     *catalog.Offering
	Itinerary []state.DayEntry
	Result    *engine.Result
	// Archived is the itinerary entry recorded by this turn, if any.
	Archived *archive.Entry
}

// Reply returns the final assistant message of the turn.
func (r *Response) Reply() string {
	if r == nil || len(r.Replies) == 0 {
		return ""
	}
	return r.Replies[len(r.Replies)-1]
}

// Runner executes turns against stored conversations.
type Runner struct {
	sessions  *session.Manager
	engine    *engine.Engine
	chain     *middleware.MiddlewareChain
	archive   archive.Store
	semaphore chan struct{}
	locks     *keyedLocks
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMiddleware appends middlewares around every turn.
func WithMiddleware(ms ...middleware.Middleware) Option {
	return func(r *Runner) {
		for _, m := range ms {
			r.chain.Add(m)
		}
	}
}

// WithArchive records every new itinerary in store.
func WithArchive(store archive.Store) Option {
	return func(r *Runner) { r.archive = store }
}

// WithMaxConcurrency bounds how many turns run at once.
func WithMaxConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.semaphore = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runner over a session manager and an engine.
func New(sessions *session.Manager, eng *engine.Engine, opts ...Option) (*Runner, error) {
	if sessions == nil {
		return nil, fmt.Errorf("runner: session manager cannot be nil")
	}
	if eng == nil {
		return nil, fmt.Errorf("runner: engine cannot be nil")
	}
	r := &Runner{
		sessions:  sessions,
		engine:    eng,
		chain:     middleware.NewChain(),
		semaphore: make(chan struct{}, defaultMaxConcurrency),
		locks:     newKeyedLocks(),
		logger:    logging.WithComponent("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Sessions returns the session manager the runner persists through.
func (r *Runner) Sessions() *session.Manager {
	return r.sessions
}

// Run executes one turn of conversation id. An empty id starts a new
// conversation under a generated id. The conversation is saved whenever the
// engine ran, including when the turn hit the step cap; in that case the
// response is returned together with the error.
func (r *Runner) Run(ctx context.Context, id, input string) (*Response, error) {
	if id == "" {
		id = uuid.NewString()
	}

	release, err := r.locks.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	st, created, err := r.sessions.GetOrCreate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	before := markOf(st)

	mctx := middleware.NewContext(ctx)
	mctx.ConversationID = id
	mctx.Input = input
	mctx.State = st
	mctx.Metadata[middleware.MetaCreated] = created

	turnErr := r.chain.Execute(mctx, func(c *middleware.Context) error {
		res, err := r.engine.RunTurn(c.Context(), c.State, c.Input)
		c.Result = res
		return err
	})
	if mctx.Result == nil {
		// Rejected before the engine ran; nothing changed.
		return nil, turnErr
	}

	if err := r.sessions.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save conversation %s: %w", id, err)
	}

	resp := &Response{
		ConversationID: id,
		Created:        created,
		Stage:          st.Stage,
		Offer:          st.CurrentOffer,
		Itinerary:      append([]state.DayEntry(nil), st.Itinerary...),
		Result:         mctx.Result,
	}
	for _, m := range mctx.Result.Replies {
		resp.Replies = append(resp.Replies, m.Text())
	}
	if markOf(st).newItinerary(before) {
		resp.Archived = r.record(ctx, st)
	}
	return resp, turnErr
}

// Replay runs inputs as consecutive turns of one conversation and stops at
// the first failing turn.
func (r *Runner) Replay(ctx context.Context, id string, inputs []string) ([]*Response, error) {
	out := make([]*Response, 0, len(inputs))
	for _, input := range inputs {
		resp, err := r.Run(ctx, id, input)
		if resp != nil {
			out = append(out, resp)
			id = resp.ConversationID
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Runner) record(ctx context.Context, st *state.State) *archive.Entry {
	if r.archive == nil {
		return nil
	}
	entry := archive.FromState(st)
	if entry == nil {
		return nil
	}
	if err := r.archive.Add(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "archive itinerary failed", "conversation_id", st.ID, "error", err)
		return nil
	}
	r.logger.DebugContext(ctx, "itinerary archived", "conversation_id", st.ID, "entry_id", entry.ID)
	return entry
}

// itineraryMark captures enough of a state to tell whether a turn produced
// a different itinerary.
type itineraryMark struct {
	offerID string
	round   int
	days    []state.DayEntry
}

func markOf(st *state.State) itineraryMark {
	m := itineraryMark{round: st.AltRound}
	if st.CurrentOffer != nil {
		m.offerID = st.CurrentOffer.ID
	}
	m.days = slices.Clone(st.Itinerary)
	return m
}

func (m itineraryMark) newItinerary(before itineraryMark) bool {
	if len(m.days) == 0 {
		return false
	}
	return m.offerID != before.offerID || m.round != before.round || !slices.Equal(m.days, before.days)
}

// keyedLocks hands out one context-aware lock per key and forgets keys
// nobody holds or waits for.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyLock)}
}

func (k *keyedLocks) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.drop(key, l)
		}, nil
	case <-ctx.Done():
		k.drop(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedLocks) drop(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// ParallelRunner executes turns of several conversations in parallel
type ParallelRunner struct {
	runner *Runner
}

// NewParallelRunner creates a new parallel runner
func NewParallelRunner(r *Runner) *ParallelRunner {
	return &ParallelRunner{runner: r}
}

// Task represents a turn to be executed
type Task struct {
	ConversationID string
	Input          string
}

// Result represents the result of a task execution
type Result struct {
	ConversationID string
	Response       *Response
	Error          error
}

// RunParallel executes multiple tasks in parallel. Tasks addressing the same
// conversation still run one at a time, in no particular order.
func (pr *ParallelRunner) RunParallel(ctx context.Context, tasks []*Task) []*Result {
	results := make([]*Result, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t *Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = &Result{
						ConversationID: t.ConversationID,
						Error:          fmt.Errorf("panic in conversation %s: %v", t.ConversationID, r),
					}
				}
			}()

			resp, err := pr.runner.Run(ctx, t.ConversationID, t.Input)
			id := t.ConversationID
			if resp != nil {
				id = resp.ConversationID
			}
			results[index] = &Result{
				ConversationID: id,
				Response:       resp,
				Error:          err,
			}
		}(i, task)
	}

	wg.Wait()
	return results
}
