package relay

import (
	"fmt"
	"sync"

	"protocol-v2/core"

	"github.com/google/uuid"
)

// ConnectionState is one stage of the per-connection lifecycle (spec.md
// §4.5): Connecting -> Authenticated -> Streaming -> (Stalled) -> Closing
// -> Closed.
type ConnectionState uint8

const (
	StateConnecting ConnectionState = iota
	StateAuthenticated
	StateStreaming
	StateStalled
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateStreaming:
		return "streaming"
	case StateStalled:
		return "stalled"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "state(unknown)"
	}
}

// legalTransitions enumerates the edges the state machine allows. Stalled
// can resume straight to Streaming (backpressure cleared) or proceed to
// Closing (heartbeat timeout escalates to disconnect).
var legalTransitions = map[ConnectionState]map[ConnectionState]bool{
	StateConnecting:    {StateAuthenticated: true, StateClosing: true},
	StateAuthenticated: {StateStreaming: true, StateClosing: true},
	StateStreaming:     {StateStalled: true, StateClosing: true},
	StateStalled:       {StateStreaming: true, StateClosing: true},
	StateClosing:       {StateClosed: true},
	StateClosed:        {},
}

// Connection tracks one producer or consumer's lifecycle state. Kind
// distinguishes producer from consumer since closing a producer triggers
// StateInvalidationTLV emission but closing a consumer does not (spec.md
// §4.5 failure semantics).
type Connection struct {
	ID     uuid.UUID
	Kind   ConnectionKind
	Source core.SourceType // meaningful for producer connections only

	mu    sync.Mutex
	state ConnectionState
}

// ConnectionKind distinguishes the two roles a Connection can play.
type ConnectionKind uint8

const (
	ConnectionProducer ConnectionKind = iota
	ConnectionConsumer
)

// NewConnection starts a connection in the Connecting state.
func NewConnection(kind ConnectionKind, source core.SourceType) *Connection {
	return &Connection{ID: uuid.New(), Kind: kind, Source: source, state: StateConnecting}
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transition moves the connection to next, rejecting any edge not present
// in legalTransitions.
func (c *Connection) Transition(next ConnectionState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !legalTransitions[c.state][next] {
		return fmt.Errorf("relay: illegal connection state transition %s -> %s", c.state, next)
	}
	c.state = next
	return nil
}
