package relay

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"protocol-v2/core"
	"protocol-v2/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TopicFilter is one row of the relay's topic map (spec.md §4.5/§6): a
// topic name plus the producer sources and/or TLV types that route to it.
// An empty Sources or Types list matches anything.
type TopicFilter struct {
	Topic   string
	Sources []core.SourceType
	Types   []core.TLVType
}

func (f TopicFilter) matches(source core.SourceType, types []core.TLVType) bool {
	if len(f.Sources) > 0 && !containsSource(f.Sources, source) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range types {
		if containsType(f.Types, t) {
			return true
		}
	}
	return false
}

func containsSource(list []core.SourceType, s core.SourceType) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func containsType(list []core.TLVType, t core.TLVType) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

// consumerState is one subscribed consumer connection: its lifecycle
// connection, the topics it asked for, and its bounded outbound queue.
type consumerState struct {
	conn   *Connection
	topics map[string]bool
	queue  chan []byte
}

// Relay is the single generic relay type from spec.md §4.5, parameterised
// entirely by a DomainPolicy — one relay instance handles exactly one
// domain's validation, backpressure, and routing rules.
type Relay struct {
	Domain RelayDomainInfo
	Policy DomainPolicy
	Topics []TopicFilter

	logger *logrus.Logger

	mu               sync.RWMutex
	producers        map[core.SourceType]*Connection
	consumers        map[uuid.UUID]*consumerState
	instrumentOwners map[uint64]core.SourceType

	sequence *SequenceTracker
	rings    map[core.SourceType]*RetransmitRing

	systemBuilder *core.Builder

	stats Stats
}

// RelayDomainInfo names the domain a Relay instance was built for, purely
// for logging/stats — routing/validation decisions come from Policy.
type RelayDomainInfo struct {
	Domain core.RelayDomain
}

// Stats is a snapshot of relay counters, exposed to adminhttp. Fields are
// mutated only through atomic operations on the live Relay.stats value —
// StatsSnapshot reads them the same way.
type Stats struct {
	Accepted  uint64
	Dropped   uint64
	Duplicate uint64
	Gaps      uint64
}

// NewRelay constructs a relay for policy.Domain, with the given topic map
// and logger. Use the per-domain constructors below unless a test needs a
// custom policy.
func NewRelay(policy DomainPolicy, topics []TopicFilter, logger *logrus.Logger) *Relay {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Relay{
		Domain:           RelayDomainInfo{Domain: policy.Domain},
		Policy:           policy,
		Topics:           topics,
		logger:           logger,
		producers:        make(map[core.SourceType]*Connection),
		consumers:        make(map[uuid.UUID]*consumerState),
		instrumentOwners: make(map[uint64]core.SourceType),
		sequence:         NewSequenceTracker(),
		rings:            make(map[core.SourceType]*RetransmitRing),
		systemBuilder:    core.NewBuilder(policy.Domain, core.SourceRelayInternal),
	}
}

// NewMarketDataRelay builds a relay with MarketDataPolicy defaults.
func NewMarketDataRelay(topics []TopicFilter, logger *logrus.Logger) *Relay {
	return NewRelay(MarketDataPolicy(), topics, logger)
}

// NewSignalRelay builds a relay with SignalPolicy defaults.
func NewSignalRelay(topics []TopicFilter, logger *logrus.Logger) *Relay {
	return NewRelay(SignalPolicy(), topics, logger)
}

// NewExecutionRelay builds a relay with ExecutionPolicy defaults.
func NewExecutionRelay(topics []TopicFilter, logger *logrus.Logger) *Relay {
	return NewRelay(ExecutionPolicy(), topics, logger)
}

// AcceptProducer registers a new producer connection for source, per
// spec.md §4.5 "Accept producer stream": authenticate by source field,
// record it in the active-producers table.
func (r *Relay) AcceptProducer(source core.SourceType) (*Connection, error) {
	conn := NewConnection(ConnectionProducer, source)
	if err := conn.Transition(StateAuthenticated); err != nil {
		return nil, err
	}
	if err := conn.Transition(StateStreaming); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.producers[source] = conn
	r.mu.Unlock()
	r.logger.WithField("source", source.String()).Info("relay: producer accepted")
	return conn, nil
}

// AcceptConsumer registers a new consumer connection with an initial topic
// subscription and a bounded outbound queue sized at the policy's high
// water mark.
func (r *Relay) AcceptConsumer(topics []string) (*Connection, <-chan []byte, error) {
	conn := NewConnection(ConnectionConsumer, core.SourceUnknown)
	if err := conn.Transition(StateAuthenticated); err != nil {
		return nil, nil, err
	}
	if err := conn.Transition(StateStreaming); err != nil {
		return nil, nil, err
	}
	cs := &consumerState{
		conn:   conn,
		topics: make(map[string]bool, len(topics)),
		queue:  make(chan []byte, r.Policy.HighWaterMark),
	}
	for _, t := range topics {
		cs.topics[t] = true
	}
	r.mu.Lock()
	r.consumers[conn.ID] = cs
	r.mu.Unlock()
	return conn, cs.queue, nil
}

// DisconnectProducer closes a producer connection and, per spec.md §4.5/§7
// failure semantics, emits StateInvalidationTLV(action=Reset) for every
// instrument that source owned, then resets its sequence expectation.
func (r *Relay) DisconnectProducer(source core.SourceType) []core.StateInvalidationTLV {
	r.mu.Lock()
	conn, ok := r.producers[source]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	var owned []uint64
	for instrument, owner := range r.instrumentOwners {
		if owner == source {
			owned = append(owned, instrument)
			delete(r.instrumentOwners, instrument)
		}
	}
	delete(r.producers, source)
	r.mu.Unlock()

	_ = conn.Transition(StateClosing)
	_ = conn.Transition(StateClosed)
	r.sequence.ResetSource(source, r.Policy.Domain)

	invalidations := make([]core.StateInvalidationTLV, 0, len(owned))
	for _, instrument := range owned {
		id := core.FromU64(instrument)
		invalidations = append(invalidations, core.StateInvalidationTLV{
			Venue:         id.Venue,
			InstrumentU64: instrument,
			Action:        core.StateInvalidationReset,
		})
	}
	r.logger.WithFields(logrus.Fields{"source": source.String(), "instruments": len(invalidations)}).
		Warn("relay: producer disconnected, invalidating owned instruments")
	return invalidations
}

// ringCapacity returns the per-source retransmit ring capacity, letting an
// operator override the default without a config file via
// PROTOCOL_V2_RING_CAPACITY (spec.md §6's capacity knob).
func ringCapacity() int {
	return utils.EnvOrDefaultInt("PROTOCOL_V2_RING_CAPACITY", DefaultRingCapacity)
}

// ringFor lazily creates the per-source retransmit ring.
func (r *Relay) ringFor(source core.SourceType) *RetransmitRing {
	r.mu.Lock()
	defer r.mu.Unlock()
	ring, ok := r.rings[source]
	if !ok {
		ring, _ = NewRetransmitRing(ringCapacity())
		r.rings[source] = ring
	}
	return ring
}

// HandleInbound validates, sequences, retains, and routes one inbound
// message per spec.md §4.5's Validate/Route operations. Returns the TLV
// types the message carried (for tests/observability) or an error if the
// message was dropped.
func (r *Relay) HandleInbound(message []byte) ([]core.TLVType, error) {
	header, err := core.ParseHeader(message, r.Policy.headerValidationPolicy())
	if err != nil {
		atomic.AddUint64(&r.stats.Dropped, 1)
		r.logger.WithError(err).Debug("relay: dropping message, header parse failed")
		return nil, err
	}
	if header.Domain != r.Policy.Domain {
		atomic.AddUint64(&r.stats.Dropped, 1)
		return nil, fmt.Errorf("relay: message domain %s does not match relay domain %s", header.Domain, r.Policy.Domain)
	}

	// Every domain runs the same full ParseTLVs walk, with size constraints
	// enforced (routing needs the types). DomainTypeCheck adds the
	// registry-domain cross-check below; StrictTLVWalk is not read here or
	// by ParseHeader, so market data gets no lighter walk than the others.
	records, err := core.ParseTLVs(message[core.HeaderSize:])
	if err != nil {
		atomic.AddUint64(&r.stats.Dropped, 1)
		r.logger.WithError(err).Debug("relay: dropping message, TLV walk failed")
		return nil, err
	}
	types := make([]core.TLVType, 0, len(records))
	for _, rec := range records {
		if r.Policy.DomainTypeCheck {
			if err := core.CheckDomain(rec.Type, header.Domain); err != nil {
				atomic.AddUint64(&r.stats.Dropped, 1)
				return nil, err
			}
		}
		types = append(types, rec.Type)
	}

	outcome, lostFrom, lostTo := r.sequence.Observe(header.Source, header.Domain, header.Sequence)
	switch outcome {
	case SequenceDuplicate:
		atomic.AddUint64(&r.stats.Duplicate, 1)
		r.logger.WithFields(logrus.Fields{"source": header.Source.String(), "sequence": header.Sequence}).
			Debug("relay: dropping duplicate/out-of-order message")
		return nil, fmt.Errorf("relay: sequence %d is a duplicate or out of order for source %s", header.Sequence, header.Source)
	case SequenceGap:
		atomic.AddUint64(&r.stats.Gaps, 1)
		r.logger.WithFields(logrus.Fields{"source": header.Source.String(), "from": lostFrom, "to": lostTo}).
			Warn("relay: sequence gap detected")
	}

	r.ringFor(header.Source).Store(header.Sequence, append([]byte(nil), message...))
	atomic.AddUint64(&r.stats.Accepted, 1)
	r.route(message, header.Source, header.Sequence, types)
	return types, nil
}

// route pushes message to every consumer whose topic subscription matches
// (source, types), honouring the domain's backpressure policy when a
// consumer's queue is full (spec.md §4.5 "Broadcast"/"Backpressure").
func (r *Relay) route(message []byte, source core.SourceType, sequence uint64, types []core.TLVType) {
	topics := r.matchingTopics(source, types)
	if len(topics) == 0 {
		return
	}

	r.mu.RLock()
	targets := make([]*consumerState, 0, len(r.consumers))
	for _, cs := range r.consumers {
		if cs.subscribedToAny(topics) {
			targets = append(targets, cs)
		}
	}
	r.mu.RUnlock()

	for _, cs := range targets {
		if r.deliver(cs, message) {
			r.sequence.RecordDelivery(cs.conn.ID.String(), source, sequence)
		}
	}
}

func (cs *consumerState) subscribedToAny(topics []string) bool {
	for _, t := range topics {
		if cs.topics[t] {
			return true
		}
	}
	return false
}

func (r *Relay) matchingTopics(source core.SourceType, types []core.TLVType) []string {
	var out []string
	for _, f := range r.Topics {
		if f.matches(source, types) {
			out = append(out, f.Topic)
		}
	}
	return out
}

// deliver enqueues message onto cs's outbound queue, applying the relay's
// backpressure policy when the queue is full. It reports whether message
// was actually handed to the consumer, so callers can gate per-consumer
// delivery bookkeeping (spec.md §4.6's last_delivered_sequence) on a real
// delivery rather than a dropped or stalled one.
func (r *Relay) deliver(cs *consumerState, message []byte) bool {
	select {
	case cs.queue <- message:
		return true
	default:
	}

	switch r.Policy.Backpressure {
	case BackpressureDropOldest:
		select {
		case <-cs.queue:
		default:
		}
		select {
		case cs.queue <- message:
			return true
		default:
			return false
		}
	case BackpressureDropNewest:
		// message itself is dropped; queue left untouched.
		return false
	case BackpressureBlock, BackpressureAdaptive:
		timeout := time.Duration(r.Policy.BlockTimeoutMs) * time.Millisecond
		select {
		case cs.queue <- message:
			return true
		case <-time.After(timeout):
			_ = cs.conn.Transition(StateStalled)
			r.closeConsumer(cs)
			return false
		}
	}
	return false
}

// closeConsumer tears down a consumer whose send blocked past its
// backpressure timeout (spec.md §4.5/§7: "on timeout the producer's
// connection is closed" — for consumers the analogous action is closing
// that consumer only, per "Consumer send failure: close that consumer
// only").
func (r *Relay) closeConsumer(cs *consumerState) {
	_ = cs.conn.Transition(StateClosing)
	_ = cs.conn.Transition(StateClosed)
	r.mu.Lock()
	delete(r.consumers, cs.conn.ID)
	r.mu.Unlock()
	close(cs.queue)
}

// Recover evaluates a consumer's RecoveryRequestTLV and returns the
// relay's decision (spec.md §4.6).
func (r *Relay) Recover(req core.RecoveryRequestTLV, source core.SourceType) RecoveryDecision {
	return DecideRecovery(req, r.ringFor(source))
}

// ObserveInstrumentOwner records that source is the producer for
// instrument, so a later disconnect can emit the right StateInvalidationTLVs.
func (r *Relay) ObserveInstrumentOwner(instrument uint64, source core.SourceType) {
	r.mu.Lock()
	r.instrumentOwners[instrument] = source
	r.mu.Unlock()
}

// BroadcastStateInvalidations builds and routes a StateInvalidationTLV
// message per entry in invalidations, sourced as SourceRelayInternal. This
// bypasses producer sequence tracking since the relay itself, not an
// external producer, originates these messages (spec.md §4.5/§7: a
// producer disconnect invalidates every instrument it owned).
func (r *Relay) BroadcastStateInvalidations(invalidations []core.StateInvalidationTLV) error {
	for _, inv := range invalidations {
		message, err := r.systemBuilder.Build(0, []core.TLVField{{Type: core.TypeStateInvalidation, Value: inv.Encode()}})
		if err != nil {
			return err
		}
		r.route(message, core.SourceRelayInternal, 0, []core.TLVType{core.TypeStateInvalidation})
	}
	return nil
}

// StatsSnapshot returns a copy of the relay's counters.
func (r *Relay) StatsSnapshot() Stats {
	return Stats{
		Accepted:  atomic.LoadUint64(&r.stats.Accepted),
		Dropped:   atomic.LoadUint64(&r.stats.Dropped),
		Duplicate: atomic.LoadUint64(&r.stats.Duplicate),
		Gaps:      atomic.LoadUint64(&r.stats.Gaps),
	}
}
