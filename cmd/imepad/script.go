package main

import (
	"sync"
	"time"

	"imecompose/internal/ime"
)

// demoSteps spells 漢字 the way a kana-kanji input method would.
var demoSteps = []ime.Event{
	ime.Enabled{},
	ime.Preedit{Value: "か", HasCursor: true},
	ime.Preedit{Value: "かn", HasCursor: true},
	ime.Preedit{Value: "かん", HasCursor: true},
	ime.Preedit{Value: "かんじ", HasCursor: true},
	ime.Preedit{Value: "漢字", HasCursor: true},
	ime.Commit{Value: "漢字"},
	ime.Preedit{},
}

// script replays a fixed event sequence as a composition source when no
// input method is connected.
type script struct {
	steps []ime.Event

	mu    sync.Mutex
	next  int
	queue []ime.Event

	stop chan struct{}
	once sync.Once
}

func newScript(steps []ime.Event) *script {
	return &script{steps: steps, stop: make(chan struct{})}
}

// start queues one step every interval and calls notify after each.
func (s *script) start(interval time.Duration, notify func()) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.advance()
				if notify != nil {
					notify()
				}
			}
		}
	}()
}

// advance queues the next step, wrapping around at the end.
func (s *script) advance() {
	if len(s.steps) == 0 {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, s.steps[s.next])
	s.next = (s.next + 1) % len(s.steps)
	s.mu.Unlock()
}

// Pending implements ui.Source.
func (s *script) Pending() []ime.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

func (s *script) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
