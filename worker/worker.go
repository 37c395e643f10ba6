// Package worker provides a bounded parallelism grading worker for the
// serve mode. Each request grades the compiled-in submission under a
// per request look-back period.
package worker

import (
	"context"
	"sync"

	"github.com/criyle/go-grader/assignment"
	"github.com/criyle/go-grader/runner"
)

const maxWaiting = 512

// Config defines worker configuration
type Config struct {
	Runner        *runner.Runner
	Assignment    *assignment.Config
	Parallelism   int
	GradeObserver func(Response)
}

// Request asks for one grading. Lookback overrides the slug derivation
// when positive.
type Request struct {
	RequestID string
	Slug      string
	Lookback  int
}

// Response carries one grading outcome.
type Response struct {
	RequestID string
	Summary   *runner.Summary
	Error     error
}

// Worker defines the interface for a grading worker
type Worker interface {
	Start()
	Submit(ctx context.Context, req *Request) <-chan Response
	Execute(ctx context.Context, req *Request, observe func(runner.Event)) <-chan Response
	Shutdown()
}

type worker struct {
	runner        *runner.Runner
	conf          *assignment.Config
	parallelism   int
	gradeObserver func(Response)

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	workCh    chan workRequest
	done      chan struct{}
}

type workRequest struct {
	*Request
	context.Context
	resultCh chan<- Response
}

// New creates a new worker
func New(conf Config) Worker {
	parallelism := conf.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	a := conf.Assignment
	if a == nil {
		a = assignment.Default()
	}
	return &worker{
		runner:        conf.Runner,
		conf:          a,
		parallelism:   parallelism,
		gradeObserver: conf.GradeObserver,
	}
}

// Start starts worker loops with the configured parallelism
func (w *worker) Start() {
	w.startOnce.Do(func() {
		w.workCh = make(chan workRequest, maxWaiting)
		w.done = make(chan struct{})
		w.wg.Add(w.parallelism)
		for i := 0; i < w.parallelism; i++ {
			go w.loop()
		}
	})
}

// Submit queues a single grading request
func (w *worker) Submit(ctx context.Context, req *Request) <-chan Response {
	ch := make(chan Response, 1)
	w.workCh <- workRequest{
		Request:  req,
		Context:  ctx,
		resultCh: ch,
	}
	return ch
}

// Execute grades in a new goroutine, bypassing the parallelism limit,
// and forwards per function events to observe.
func (w *worker) Execute(ctx context.Context, req *Request, observe func(runner.Event)) <-chan Response {
	ch := make(chan Response, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.workDoGrade(workRequest{
			Request:  req,
			Context:  ctx,
			resultCh: ch,
		}, observe)
	}()
	return ch
}

// Shutdown waits for all gradings to finish
func (w *worker) Shutdown() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

func (w *worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case req, ok := <-w.workCh:
			if !ok {
				return
			}
			w.workDoGrade(req, nil)
		case <-w.done:
			return
		}
	}
}

func (w *worker) workDoGrade(req workRequest, observe func(runner.Event)) {
	lookback := req.Lookback
	if lookback <= 0 {
		lookback = w.conf.Lookback(req.Slug)
	}

	r := w.runner
	if observe != nil {
		r = r.WithObserver(observe)
	}
	results := r.RunAll(req.Context, lookback)

	rt := Response{
		RequestID: req.RequestID,
		Summary:   runner.Summarize(results, lookback),
	}
	if err := req.Context.Err(); err != nil {
		rt.Error = err
	}
	if w.gradeObserver != nil {
		w.gradeObserver(rt)
	}
	req.resultCh <- rt
}
