package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Actor owns one logical connection to a durable object: connect, send,
// receive-dispatch, disconnect-detect, backoff-scheduled reconnect. All state
// is confined to the actor's run loop; callers talk to it through synchronous
// round trips on the request channel, none of which wait on network I/O.
type Actor struct {
	objectID string
	cfg      ActorConfig
	logger   *slog.Logger

	requests chan request
	dials    chan dialResult
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
}

type reqKind int

const (
	reqTransport reqKind = iota
	reqSubscribe
	reqUnsubscribe
	reqStatus
	reqStats
	reqReconnect
	reqStop
)

type request struct {
	kind  reqKind
	ch    chan<- Event
	done  <-chan struct{}
	reply chan response
}

type response struct {
	status Status
	stats  ActorStats
	tr     Transport
	err    error
}

type dialResult struct {
	tr  Transport
	err error
}

// NewActor creates an actor for objectID and begins connecting immediately.
// The handle is returned regardless of eventual connection success.
func NewActor(objectID string, cfg ActorConfig, logger *slog.Logger) (*Actor, error) {
	if objectID == "" {
		return nil, fmt.Errorf("%w: object id is required", ErrInvalidConfig)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = 500 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.BackoffInitial > cfg.BackoffMax {
		return nil, fmt.Errorf("%w: backoff initial %v exceeds max %v",
			ErrInvalidConfig, cfg.BackoffInitial, cfg.BackoffMax)
	}
	if cfg.Factory == nil {
		cfg.Factory = NewTransport
	}

	def := DefaultTransportConfig()
	if cfg.Transport.PingInterval == 0 {
		cfg.Transport.PingInterval = def.PingInterval
	}
	if cfg.Transport.PingTimeout == 0 {
		cfg.Transport.PingTimeout = def.PingTimeout
	}
	if cfg.Transport.WriteTimeout == 0 {
		cfg.Transport.WriteTimeout = def.WriteTimeout
	}
	if cfg.Transport.BufferSize == 0 {
		cfg.Transport.BufferSize = def.BufferSize
	}
	cfg.Transport.URL = cfg.URL

	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Actor{
		objectID: objectID,
		cfg:      cfg,
		logger:   logger.With("object_id", objectID),
		requests: make(chan request),
		dials:    make(chan dialResult, 1),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go a.run()

	return a, nil
}

// ObjectID returns the object id this actor serves.
func (a *Actor) ObjectID() string {
	return a.objectID
}

// Done is closed once the actor has stopped.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Send forwards one text frame to the transport. It fails with ErrNotConnected
// when the actor is not connected; frames are never queued for later delivery.
// A send failure does not trigger reconnection on its own.
func (a *Actor) Send(data []byte) error {
	resp := a.ask(request{kind: reqTransport})
	if resp.err != nil {
		return resp.err
	}
	// The write happens on the caller's goroutine; the transport serializes
	// writers internally and applies its own deadline.
	return resp.tr.Send(data)
}

// Subscribe registers ch to receive all future events. Re-subscribing the same
// channel is a no-op. If done is non-nil the subscription is removed
// automatically when done is closed.
func (a *Actor) Subscribe(ch chan<- Event, done <-chan struct{}) error {
	return a.ask(request{kind: reqSubscribe, ch: ch, done: done}).err
}

// Unsubscribe removes ch from the subscriber set.
func (a *Actor) Unsubscribe(ch chan<- Event) error {
	return a.ask(request{kind: reqUnsubscribe, ch: ch}).err
}

// Status returns the actor's connection state. A stopped actor reports
// StatusDisconnected.
func (a *Actor) Status() Status {
	resp := a.ask(request{kind: reqStatus})
	if resp.err != nil {
		return StatusDisconnected
	}
	return resp.status
}

// Stats returns a snapshot of the actor's state.
func (a *Actor) Stats() ActorStats {
	resp := a.ask(request{kind: reqStats})
	if resp.err != nil {
		return ActorStats{ObjectID: a.objectID, Status: StatusDisconnected}
	}
	return resp.stats
}

// Reconnect connects immediately if the actor is disconnected, cancelling any
// pending backoff timer. It is a no-op while connecting or connected, which
// also makes it the explicit path back for actors with AutoReconnect disabled.
func (a *Actor) Reconnect() error {
	return a.ask(request{kind: reqReconnect}).err
}

// Stop cancels any pending reconnect, closes the transport if open, and
// releases all resources. No events are delivered after Stop returns.
// Stop is idempotent.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		a.ask(request{kind: reqStop})
	})
	<-a.done
}

// ask performs one synchronous round trip to the run loop.
func (a *Actor) ask(req request) response {
	req.reply = make(chan response, 1)

	select {
	case a.requests <- req:
	case <-a.done:
		return response{err: ErrActorStopped}
	}

	select {
	case resp := <-req.reply:
		return resp
	case <-a.done:
		return response{err: ErrActorStopped}
	}
}

// run is the actor's event loop and the only goroutine that touches its state.
func (a *Actor) run() {
	var (
		status    = StatusDisconnected
		transport Transport
		backoff   = a.cfg.BackoffInitial
		timer     *time.Timer
		timerC    <-chan time.Time
		dialCount int64
		lastErr   error

		// Subscriber registry: channel identity -> monitor stop signal.
		subs = make(map[chan<- Event]chan struct{})
	)

	var msgs <-chan TimestampedMessage
	var errs <-chan error

	startDial := func() {
		status = StatusConnecting
		dialCount++
		tr := a.cfg.Factory(a.cfg.Transport, a.logger)
		go func() {
			// At most one dial is in flight and the channel holds one
			// result, so this send never blocks and every result is
			// delivered, even when the loop has already stopped.
			a.dials <- dialResult{tr: tr, err: tr.Connect(a.ctx)}
		}()
	}

	cancelTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	broadcast := func(ev Event) {
		ev.ObjectID = a.objectID
		if ev.ReceivedAt.IsZero() {
			ev.ReceivedAt = time.Now()
		}
		for ch := range subs {
			// Best-effort: a full subscriber never blocks the actor or
			// delivery to others.
			select {
			case ch <- ev:
			default:
				a.logger.Warn("subscriber buffer full, dropping event",
					"event", ev.Type.String(),
				)
			}
		}
	}

	scheduleReconnect := func() {
		if !a.cfg.AutoReconnect || timerC != nil {
			return
		}
		delay := backoff
		timer = time.NewTimer(delay)
		timerC = timer.C
		// The delay just scheduled is the pre-doubling value; doubling
		// prepares the next failure.
		backoff *= 2
		if backoff > a.cfg.BackoffMax {
			backoff = a.cfg.BackoffMax
		}
		a.logger.Info("reconnect scheduled", "delay", delay)
	}

	disconnect := func(reason error) {
		if transport != nil {
			transport.Close()
			transport = nil
		}
		msgs, errs = nil, nil
		status = StatusDisconnected
		lastErr = reason
		broadcast(Event{Type: EventDisconnected, Reason: reason})
		scheduleReconnect()
	}

	// Entering create fires the first connect with zero delay.
	startDial()

	for {
		select {
		case res := <-a.dials:
			if res.err != nil {
				a.logger.Warn("connect failed", "error", res.err)
				disconnect(res.err)
				continue
			}
			transport = res.tr
			msgs = transport.Messages()
			errs = transport.Errors()
			status = StatusConnected
			backoff = a.cfg.BackoffInitial
			lastErr = nil
			a.logger.Info("connected", "url", a.cfg.URL)
			broadcast(Event{Type: EventConnected})

		case <-timerC:
			timer = nil
			timerC = nil
			startDial()

		case msg := <-msgs:
			broadcast(Event{
				Type:       EventMessage,
				Data:       msg.Data,
				ReceivedAt: msg.ReceivedAt,
			})

		case err := <-errs:
			a.logger.Warn("transport error", "error", err)
			disconnect(err)

		case req := <-a.requests:
			switch req.kind {
			case reqTransport:
				if status != StatusConnected || transport == nil {
					req.reply <- response{err: ErrNotConnected}
				} else {
					req.reply <- response{tr: transport}
				}

			case reqSubscribe:
				if _, ok := subs[req.ch]; !ok {
					stop := make(chan struct{})
					subs[req.ch] = stop
					if req.done != nil {
						go a.watchSubscriber(req.ch, req.done, stop)
					}
				}
				req.reply <- response{}

			case reqUnsubscribe:
				if stop, ok := subs[req.ch]; ok {
					close(stop)
					delete(subs, req.ch)
				}
				if req.reply != nil {
					req.reply <- response{}
				}

			case reqStatus:
				req.reply <- response{status: status}

			case reqStats:
				req.reply <- response{stats: ActorStats{
					ObjectID:    a.objectID,
					Status:      status,
					Subscribers: len(subs),
					DialCount:   dialCount,
					NextBackoff: backoff,
					LastError:   lastErr,
				}}

			case reqReconnect:
				if status == StatusDisconnected {
					cancelTimer()
					startDial()
				}
				req.reply <- response{}

			case reqStop:
				cancelTimer()
				if transport != nil {
					transport.Close()
					transport = nil
				}
				if status == StatusConnecting {
					// A dial is still in flight. Its transport may open
					// after this loop returns; reap the result so the
					// socket and its goroutines are released.
					go func() {
						if res := <-a.dials; res.err == nil {
							res.tr.Close()
						}
					}()
				}
				for ch, stop := range subs {
					close(stop)
					delete(subs, ch)
				}
				a.cancel()
				a.logger.Info("actor stopped")
				req.reply <- response{}
				close(a.done)
				return
			}
		}
	}
}

// watchSubscriber removes a subscriber once its done channel closes, so
// fan-out never targets dead recipients.
func (a *Actor) watchSubscriber(ch chan<- Event, done <-chan struct{}, stop chan struct{}) {
	select {
	case <-done:
		select {
		case a.requests <- request{kind: reqUnsubscribe, ch: ch}:
		case <-stop:
		case <-a.done:
		}
	case <-stop:
	case <-a.done:
	}
}
