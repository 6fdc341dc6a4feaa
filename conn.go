package garil

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/ril-go/garil/internal/logging"
	"github.com/ril-go/garil/internal/metrics"
	"github.com/ril-go/garil/internal/netnonblock"
)

// Conn is one RIL connection: a single goroutine reads length-prefixed
// frames off the transport and hands each decoded Parcel to every
// subscriber, in arrival order, unless delivery is frozen.
type Conn struct {
	conn    net.Conn
	address string
	flags   Flags

	ctx    context.Context
	cancel context.CancelFunc

	initMu      sync.Mutex
	initialized bool
	initErr     error

	queue *dispatchQueue

	subMu     sync.Mutex
	subs      map[int]func(*Parcel)
	nextSubID int

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newConn(conn net.Conn, address string, flags Flags, o options) *Conn {
	// Deliberately derived from Background, not o.ctx: this context governs
	// only post-init teardown (Close cancels it), and must not be affected
	// by the caller cancelling the context it passed to WithCancel. The
	// caller's context is consulted only before init (in Dial, and again at
	// the top of doInit).
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		conn:    conn,
		address: address,
		flags:   flags,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[int]func(*Parcel)),
	}
}

// NewFromConn initializes a connection over an already-established
// net.Conn. Initialization is idempotent and safe to call concurrently.
func NewFromConn(conn net.Conn, flags Flags, opts ...Option) (*Conn, error) {
	if conn == nil {
		return nil, ErrInvalidArgument
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	c := newConn(conn, conn.RemoteAddr().String(), flags, o)
	if err := c.ensureInit(o.ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromConnAsync is NewFromConn run on a background goroutine, reporting
// its result to cb.
func NewFromConnAsync(conn net.Conn, flags Flags, cb func(*Conn, error), opts ...Option) {
	go func() {
		c, err := NewFromConn(conn, flags, opts...)
		cb(c, err)
	}()
}

// Dial connects to address over the configured network (WithNetwork,
// default "unix") and initializes a connection over it.
func Dial(address string, flags Flags, opts ...Option) (*Conn, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := o.ctx.Err(); err != nil {
		return nil, ErrCancelled
	}
	conn, err := net.Dial(o.network, address)
	if err != nil {
		metrics.DialErrors.WithLabelValues(o.network).Inc()
		return nil, err
	}
	c := newConn(conn, address, flags, o)
	if err := c.ensureInit(o.ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// DialAsync is Dial run on a background goroutine, reporting its result to cb.
func DialAsync(address string, flags Flags, cb func(*Conn, error), opts ...Option) {
	go func() {
		c, err := Dial(address, flags, opts...)
		cb(c, err)
	}()
}

// ensureInit runs doInit exactly once. The lock is held for the entire
// body, not just the flag check: a second caller either blocks until the
// first finishes (then observes the stored result) or, once initialized
// is true, takes the fast path. initialized is set only after doInit
// returns, so no caller ever observes "done" while setup is still in
// flight.
func (c *Conn) ensureInit(callerCtx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized {
		return c.initErr
	}
	err := c.doInit(callerCtx)
	c.initErr = err
	c.initialized = true
	return err
}

// doInit consults callerCtx only to reject an already-cancelled caller
// token before doing any setup work. Once init succeeds, callerCtx is
// never looked at again: the connection's own lifetime, tracked by
// c.ctx/c.cancel, is from then on governed exclusively by Close.
func (c *Conn) doInit(callerCtx context.Context) error {
	if err := callerCtx.Err(); err != nil {
		return ErrCancelled
	}
	if err := netnonblock.Set(c.conn); err != nil {
		logging.L().Warn("garil_nonblock_set_failed", "error", err)
	}
	c.queue = newDispatchQueue(c.deliver, c.flags&DelayMessageProcessing != 0)
	metrics.ActiveConnections.Inc()

	go c.readLoop()
	return nil
}

func (c *Conn) readLoop() {
	fr := newFrameReader(c.conn)
	for {
		payload, err := fr.next()
		if err != nil {
			if errors.Is(err, io.EOF) || c.ctx.Err() != nil {
				// Clean end of stream, or a Read unblocked by our own Close.
				_ = c.Close()
				return
			}
			logging.L().Error("garil_protocol_error", "address", c.address, "error", err)
			metrics.ProtocolErrors.Inc()
			_ = c.Close()
			return
		}
		metrics.ParcelsReceived.Inc()
		metrics.BytesRead.Add(float64(len(payload)))
		c.queue.push(payload)
	}
}

func (c *Conn) deliver(frame []byte) {
	p := NewParcelFromBytes(frame)

	c.subMu.Lock()
	subs := make([]func(*Parcel), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	metrics.ParcelsDelivered.Inc()
	for _, fn := range subs {
		fn(p)
	}
	if p.IsMalformed() {
		metrics.ParcelsDroppedMalformed.Inc()
	}
}

// Subscribe registers fn to receive every parcel delivered from now on.
// The returned function removes the subscription; it is safe to call more
// than once.
func (c *Conn) Subscribe(fn func(*Parcel)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.subMu.Unlock()
	metrics.ActiveSubscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			metrics.ActiveSubscribers.Dec()
		})
	}
}

// StartMessageProcessing unfreezes delivery. Any frames that accumulated
// while frozen are delivered in arrival order before this call returns.
func (c *Conn) StartMessageProcessing() {
	c.queue.setFrozen(false)
}

// Stream returns the underlying transport.
func (c *Conn) Stream() net.Conn { return c.conn }

// Address returns the address this connection was dialed to, or the
// remote address of the adopted net.Conn.
func (c *Conn) Address() string { return c.address }

// Flags returns the flags this connection was constructed with.
func (c *Conn) Flags() Flags { return c.flags }

// Write encodes p as a length-prefixed frame and writes it to the
// transport. Concurrent calls to Write are serialized.
func (c *Conn) Write(p *Parcel) error {
	if p == nil {
		return ErrInvalidArgument
	}
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var hdr [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(p.Size()))
	if _, err := c.conn.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: writing frame length: %v", ErrProtocol, err)
	}
	if _, err := c.conn.Write(p.buf); err != nil {
		return fmt.Errorf("%w: writing frame payload: %v", ErrProtocol, err)
	}
	return nil
}

// Close tears down the connection: it cancels c's internal context (which
// Write consults to reject further use with ErrClosed) and closes the
// transport, which unblocks the frame reader's pending Read. Close is
// idempotent; later calls return the same error as the first. c's internal
// context is owned exclusively by Close — nothing else ever cancels it,
// including cancellation of whatever context the caller passed to
// WithCancel, so Close is the only way to tear the connection down.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		metrics.ActiveConnections.Dec()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
