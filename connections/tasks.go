package connections

import (
	"sync"
)

const maxSubmitAttempts = 3

// Submission is one pending scrobble call.
type Submission struct {
	Listen   bool
	Artist   string
	Title    string
	attempts int
}

// SubmitTasks runs submissions through a ratelimiter, requeueing
// failures until they exhaust their attempts.
type SubmitTasks struct {
	concurrency int

	rate <-chan struct{}

	qrw   sync.RWMutex
	queue chan Submission

	cb func(Submission) error
}

// NewSubmitTasks creates a runner that executes cb for every queued
// submission, at most once per ratelimit tick.
func NewSubmitTasks(
	concurrency int,
	rate <-chan struct{},
	cb func(Submission) error,
) *SubmitTasks {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SubmitTasks{
		concurrency: concurrency,
		rate:        rate,
		queue:       make(chan Submission, concurrency),
		cb:          cb,
	}
}

func (t *SubmitTasks) Start() {
	list := make([]Submission, 0)

	for i := 0; i < t.concurrency; i++ {
		go func() {
			for s := range t.queue {
				if s.attempts >= maxSubmitAttempts {
					continue
				}

				t.qrw.Lock()
				list = append(list, s)
				t.qrw.Unlock()
			}
		}()

		go func() {
			for range t.rate {
				t.qrw.RLock()
				l := len(list)
				t.qrw.RUnlock()
				if l == 0 {
					continue
				}

				t.qrw.Lock()
				if len(list) == 0 {
					t.qrw.Unlock()
					continue
				}
				s := list[0]
				list = list[1:]
				t.qrw.Unlock()

				if err := t.cb(s); err != nil {
					s.attempts++
					t.Add(s)
				}
			}
		}()
	}
}

func (t *SubmitTasks) Add(s Submission) {
	t.queue <- s
}
