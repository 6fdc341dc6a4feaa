package garil

// Client is an opaque handle that exclusively owns one Conn. It adds no
// behavior of its own; it exists so callers have a stable handle type to
// pass around instead of a bare *Conn, matching the relationship between
// RIL's client and connection objects.
type Client struct {
	conn *Conn
}

// NewClient wraps conn in a Client.
func NewClient(conn *Conn) *Client {
	return &Client{conn: conn}
}

// Conn returns the wrapped connection.
func (cl *Client) Conn() *Conn { return cl.conn }
