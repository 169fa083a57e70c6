// Package pubsub implements PubSub: a topic is a key in a StoreDict.
// Publishers bump a 32-bit message id and store a framed payload;
// subscribers run a background poll loop and deliver unseen messages to
// handlers.
//
// This is a latest-value broadcast, not a queue: publishing overwrites
// any prior message for a topic, so a publisher faster than the 100ms
// poll period can cause a subscriber to miss an id. That is the
// documented design (spec.md §9, point 3), not a bug to work around.
//
// The background poller's log usage follows
// AlephTX-aleph-tx/feeder/ipc/publisher.go's plain log.Printf idiom:
// this module does not pull in a structured logging library because
// nothing in the example pack does either.
package pubsub

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/storedict"
)

// pollPeriod is the fixed interval spec.md §4.4 mandates for the
// background poller.
const pollPeriod = 100 * time.Millisecond

// PubSub composes a StoreDict named by the pub/sub system's own name
// and spawns one background poller goroutine on Setup.
type PubSub struct {
	store *storedict.StoreDict

	mu     sync.Mutex
	topics map[string]*topic

	msgCounter uint32

	stop chan struct{}
	done chan struct{}

	log *log.Logger
}

// New constructs a PubSub system named name, backed by a StoreDict
// region of regionSize bytes.
func New(fs osfs.FS, name string, regionSize int) *PubSub {
	return &PubSub{
		store:  storedict.New(fs, name, regionSize),
		topics: make(map[string]*topic),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		log:    log.New(os.Stderr, "pubsub: ", log.LstdFlags),
	}
}

// Setup initializes the underlying StoreDict and starts the background
// poller.
func (p *PubSub) Setup() error {
	if err := p.store.Setup(); err != nil {
		return err
	}

	go p.pollLoop()
	return nil
}

// CreateTopic writes an initial framed message (msg_id=0, a 1-byte NUL
// payload) under key name. Harmless if called more than once.
func (p *PubSub) CreateTopic(name string) error {
	return p.store.Store(name, frame(0, []byte{0}))
}

// Publish advances the system-wide message counter (wrapping modulo
// 2^32), frames payload as (msg_id, len(payload), payload), and stores
// it under key name, overwriting any prior message for that topic.
func (p *PubSub) Publish(name string, payload []byte) error {
	p.mu.Lock()
	p.msgCounter++
	id := p.msgCounter
	p.mu.Unlock()

	return p.store.Store(name, frame(id, payload))
}

// PublishString is Publish with a string payload.
func (p *PubSub) PublishString(name, s string) error {
	return p.Publish(name, []byte(s))
}

// Subscribe appends a subscriber to the named topic's local subscriber
// list, creating the topic's local record on first subscription.
func (p *PubSub) Subscribe(name string, handler Handler, userContext any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[name]
	if !ok {
		t = newTopic(name)
		p.topics[name] = t
	}
	t.subscriptions = append(t.subscriptions, subscription{handler: handler, userContext: userContext})
}

// Close signals the poller to stop, joins it with a 1s bound, and
// closes the underlying StoreDict.
func (p *PubSub) Close() error {
	select {
	case <-p.stop:
		// already closed
	default:
		close(p.stop)
	}

	select {
	case <-p.done:
	case <-time.After(1 * time.Second):
	}

	return p.store.Close()
}

func (p *PubSub) pollLoop() {
	defer close(p.done)

	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce implements spec.md §4.4's poller algorithm for a single
// tick: load the store, walk every key, deliver unseen frames.
func (p *PubSub) pollOnce() {
	if err := p.store.Load(); err != nil {
		p.log.Printf("load failed: %v", err)
		return
	}

	keys, err := p.store.ListKeys()
	if err != nil {
		p.log.Printf("list keys failed: %v", err)
		return
	}

	for _, key := range keys {
		value, err := p.store.Retrieve(key)
		if err != nil {
			continue
		}

		msgID, payload, ok := parseFrame(value)
		if !ok {
			continue
		}

		p.mu.Lock()
		t, exists := p.topics[key]
		if !exists {
			t = newTopic(key)
			p.topics[key] = t
		}

		if t.hasSeen(msgID) {
			p.mu.Unlock()
			continue
		}
		t.markSeen(msgID)
		subs := append([]subscription(nil), t.subscriptions...)
		p.mu.Unlock()

		for _, s := range subs {
			s.handler(key, payload, s.userContext)
		}
	}
}
