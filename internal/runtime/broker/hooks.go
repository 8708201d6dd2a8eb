package broker

import "time"

// LifecycleEvent describes a state transition of a component in the broker
// tree.
type LifecycleEvent struct {
	Kind     ComponentKind
	ID       string
	Category string
	// Managed is the effective managed flag at the time of the transition.
	Managed bool
	At      time.Time
}

func newLifecycleEvent(kind ComponentKind, id, category string, managed bool) LifecycleEvent {
	return LifecycleEvent{
		Kind:     kind,
		ID:       id,
		Category: category,
		Managed:  managed,
		At:       time.Now(),
	}
}

// LifecycleHooks defines callbacks for component transitions.
// All hooks are optional - nil hooks are simply not called.
type LifecycleHooks struct {
	// OnStart is called after a component switched to started.
	OnStart func(ev LifecycleEvent)

	// OnStop is called after a started component switched to stopped.
	OnStop func(ev LifecycleEvent)

	// OnError is called when a component failed to start or stop.
	OnError func(ev LifecycleEvent, err error)
}

// Merge combines two LifecycleHooks, creating a new LifecycleHooks that calls both.
// The hooks from 'other' are called after the hooks from 'h'.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStart: chainEventHooks(h.OnStart, other.OnStart),
		OnStop:  chainEventHooks(h.OnStop, other.OnStop),
		OnError: chainErrorHooks(h.OnError, other.OnError),
	}
}

func chainEventHooks(a, b func(LifecycleEvent)) func(LifecycleEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev LifecycleEvent) {
		a(ev)
		b(ev)
	}
}

func chainErrorHooks(a, b func(LifecycleEvent, error)) func(LifecycleEvent, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev LifecycleEvent, err error) {
		a(ev, err)
		b(ev, err)
	}
}

func (b *MessageBroker) notifyStart(ev LifecycleEvent) {
	if b == nil || b.hooks.OnStart == nil {
		return
	}
	b.hooks.OnStart(ev)
}

func (b *MessageBroker) notifyStop(ev LifecycleEvent) {
	if b == nil || b.hooks.OnStop == nil {
		return
	}
	b.hooks.OnStop(ev)
}

func (b *MessageBroker) notifyError(ev LifecycleEvent, err error) {
	if b == nil || err == nil || b.hooks.OnError == nil {
		return
	}
	b.hooks.OnError(ev, err)
}
