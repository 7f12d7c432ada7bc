package docstore

import "sync"

// subscription serializes snapshot delivery for one subscriber. Mutators
// kick it instead of evaluating inline; kicks coalesce through a buffered
// channel so a burst of writes yields one evaluation of the newest state,
// and fn never runs concurrently with itself.
type subscription struct {
	q    Query
	fn   func([]Document, error)
	kick chan struct{}
	stop chan struct{}
	once sync.Once
}

func newSubscription(q Query, fn func([]Document, error)) *subscription {
	return &subscription{
		q:    q,
		fn:   fn,
		kick: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// notify requests a re-evaluation. It never blocks the caller.
func (s *subscription) notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// close stops the pump. Idempotent.
func (s *subscription) close() {
	s.once.Do(func() { close(s.stop) })
}

// pump evaluates the query on every kick and hands the snapshot to fn,
// until close. Runs on its own goroutine, one per subscription.
func (s *subscription) pump(eval func(Query) ([]Document, error)) {
	for {
		select {
		case <-s.stop:
			return
		case <-s.kick:
			docs, err := eval(s.q)
			select {
			case <-s.stop:
				return
			default:
			}
			s.fn(docs, err)
		}
	}
}
