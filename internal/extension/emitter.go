package extension

import "sync"

// emitter delivers events to subscribers on its own goroutine, in emit
// order. Emitting never blocks the caller.
type emitter struct {
	mu      sync.Mutex
	subs    map[int]func(Event)
	nextID  int
	pending []Event
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newEmitter() *emitter {
	e := &emitter{
		subs: make(map[int]func(Event)),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

func (e *emitter) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.pending = append(e.pending, events...)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *emitter) run() {
	defer close(e.done)
	for range e.wake {
		e.drain()
	}
	e.drain()
}

func (e *emitter) drain() {
	for {
		e.mu.Lock()
		if len(e.pending) == 0 {
			e.mu.Unlock()
			return
		}
		ev := e.pending[0]
		e.pending = e.pending[1:]
		subs := make([]func(Event), 0, len(e.subs))
		for id := 0; id < e.nextID; id++ {
			if fn, ok := e.subs[id]; ok {
				subs = append(subs, fn)
			}
		}
		e.mu.Unlock()

		for _, fn := range subs {
			fn(ev)
		}
	}
}

func (e *emitter) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.wake)
	e.mu.Unlock()
	<-e.done
}
