// Package channel provides an in-memory Go channel transport.
// This transport is useful for testing and local development. Endpoints with
// the same channel id share one in-memory bus until the last of them closes.
package channel

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Endpoint properties understood by Build.
const (
	PropertyBuffer     = "buffer"
	PropertyPersistent = "persistent"
)

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
	transport.DefaultRegistry.Alias("gochannel", TransportName)
}

type sharedBus struct {
	pub  message.Publisher
	sub  message.Subscriber
	refs int
}

var (
	busesMu sync.Mutex
	buses   = map[string]*sharedBus{}
)

// Build returns the in-memory bus of the endpoint's channel, creating it on
// first use.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	cfg, err := busConfig(ep)
	if err != nil {
		return transport.Transport{}, err
	}

	busesMu.Lock()
	defer busesMu.Unlock()

	id := ep.GetID()
	bus, ok := buses[id]
	if !ok {
		pub, sub := Factory(cfg, logger)
		bus = &sharedBus{pub: pub, sub: sub}
		buses[id] = bus
	}
	bus.refs++

	ref := &busRef{id: id, bus: bus}
	return transport.Transport{
		Publisher:  ref,
		Subscriber: ref,
	}, nil
}

func busConfig(ep transport.Endpoint) (gochannel.Config, error) {
	var cfg gochannel.Config
	if v := ep.GetProperty(PropertyBuffer); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("channel %q: invalid %s %q", ep.GetID(), PropertyBuffer, v)
		}
		cfg.OutputChannelBuffer = n
	}
	if v := ep.GetProperty(PropertyPersistent); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("channel %q: invalid %s %q", ep.GetID(), PropertyPersistent, v)
		}
		cfg.Persistent = b
	}
	return cfg, nil
}

// busRef is one holder's handle on a shared bus.
type busRef struct {
	id   string
	bus  *sharedBus
	once sync.Once
}

func (r *busRef) Publish(topic string, messages ...*message.Message) error {
	return r.bus.pub.Publish(topic, messages...)
}

func (r *busRef) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return r.bus.sub.Subscribe(ctx, topic)
}

// Close releases the handle. The bus is closed with its last handle.
func (r *busRef) Close() error {
	var err error
	r.once.Do(func() {
		busesMu.Lock()
		defer busesMu.Unlock()

		r.bus.refs--
		if r.bus.refs > 0 {
			return
		}
		if buses[r.id] == r.bus {
			delete(buses, r.id)
		}
		err = transport.Transport{Publisher: r.bus.pub, Subscriber: r.bus.sub}.Close()
	})
	return err
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
