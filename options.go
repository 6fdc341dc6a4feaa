package garil

import "context"

// Flags control connection-construction behavior.
type Flags uint8

// DelayMessageProcessing starts the connection with its dispatch queue
// frozen: frames accumulate but are not delivered to subscribers until
// StartMessageProcessing is called.
const DelayMessageProcessing Flags = 1 << 0

type options struct {
	ctx     context.Context
	network string
}

func defaultOptions() options {
	return options{
		ctx:     context.Background(),
		network: "unix",
	}
}

// Option configures optional connection behavior.
type Option func(*options)

// WithCancel supplies a context checked only before initialization: if
// ctx is already cancelled when NewFromConn/Dial runs, initialization
// fails with ErrCancelled and (for Dial) no dial is attempted. ctx is not
// retained past initialization — cancelling it afterward has no effect on
// the connection; use Close to tear it down.
func WithCancel(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithNetwork selects the dial network ("unix" or "tcp"); default "unix".
func WithNetwork(network string) Option {
	return func(o *options) { o.network = network }
}
