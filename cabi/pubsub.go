package cabi

import (
	"fmt"

	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/pubsub"
)

var pubSubHandles = newHandleTable()

// PubSubCreate constructs a PubSub system named id with a region of
// size bytes and returns a handle to it. It does not call Setup.
func PubSubCreate(id string, size int) Handle {
	p := pubsub.New(osfs.NewReal(), id, size)
	return pubSubHandles.put(p)
}

func lookupPubSub(h Handle) (*pubsub.PubSub, error) {
	v, ok := pubSubHandles.get(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	p, ok := v.(*pubsub.PubSub)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a PubSub", ErrInvalidHandle, h)
	}
	return p, nil
}

// PubSubSetup initializes the underlying StoreDict and starts the
// background poller.
func PubSubSetup(h Handle) error {
	p, err := lookupPubSub(h)
	if err != nil {
		return err
	}
	return p.Setup()
}

// PubSubCreateTopic writes the initial empty message for a topic.
func PubSubCreateTopic(h Handle, name string) error {
	p, err := lookupPubSub(h)
	if err != nil {
		return err
	}
	return p.CreateTopic(name)
}

// PubSubPublish publishes payload to the named topic.
func PubSubPublish(h Handle, name string, payload []byte) error {
	p, err := lookupPubSub(h)
	if err != nil {
		return err
	}
	return p.Publish(name, payload)
}

// PubSubSubscribe registers handler on the named topic. userContext is
// passed back to handler on every delivery, matching the original's
// (handler, user_context) subscriber pair.
func PubSubSubscribe(h Handle, name string, handler pubsub.Handler, userContext any) error {
	p, err := lookupPubSub(h)
	if err != nil {
		return err
	}
	p.Subscribe(name, handler, userContext)
	return nil
}

// PubSubDestroy closes the PubSub system and invalidates h.
func PubSubDestroy(h Handle) error {
	p, err := lookupPubSub(h)
	if err != nil {
		return err
	}
	pubSubHandles.destroy(h)
	return p.Close()
}
