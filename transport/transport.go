// Package transport provides the reliable, ordered, local byte-stream
// contract spec.md §5 (C8) builds on: producers and consumers exchange
// whole protocol messages over it without caring how bytes got there.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send/Recv once the connection has been closed,
// either locally or by the remote side.
var ErrClosed = errors.New("transport: connection closed")

// MaxFrameSize bounds a single framed message. spec.md §6 caps a TLV
// payload well under this; it exists to stop a corrupt length prefix from
// causing an unbounded allocation.
const MaxFrameSize = 16 * 1024 * 1024

// Conn is one established transport connection. Send and Recv both carry
// whole protocol messages (header + TLV payload) framed by the
// implementation — callers never see the framing.
type Conn interface {
	// Send writes message as a single frame. It blocks until the frame is
	// queued with the OS or the write fails. A deadline on ctx bounds the
	// write; cancelling a ctx that has no deadline does not interrupt it.
	Send(ctx context.Context, message []byte) error

	// Recv reads the next frame. It blocks until a full frame has arrived
	// or the read fails (io.EOF-equivalent: Recv returns ErrClosed once the
	// peer has disconnected and no buffered frame remains). A deadline on
	// ctx bounds the read; cancelling a ctx that has no deadline does not
	// interrupt it.
	Recv(ctx context.Context) ([]byte, error)

	// Closed is closed when the connection is no longer usable, whether
	// because Close was called locally or a Send/Recv failed (including a
	// remote disconnect seen by Recv). cmd/relay detects producer loss
	// from Recv's error rather than by selecting on this.
	Closed() <-chan struct{}

	// Close tears down the connection. Idempotent.
	Close() error
}

// Listener accepts inbound connections from producers or consumers.
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}

// Dialer establishes outbound connections to a relay.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}
