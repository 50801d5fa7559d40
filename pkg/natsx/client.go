package natsx

import (
	"cmp"
	"os"

	"github.com/nats-io/nats.go"
)

// DefaultClientName is the connection name reported to the NATS server.
const DefaultClientName = "vshl"

// NewClient creates a new connection to a NATS server.
// When url is empty the NATS_URL environment variable is used, and when that is
// empty too the library default (nats://127.0.0.1:4222) applies.
// Without explicit options the connection is named "vshl" and compressed.
//
// Returns:
//   - *nats.Conn: A pointer to the established NATS connection.
//   - error: An error if the connection could not be established.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(DefaultClientName), nats.Compression(true))
	}
	return nats.Connect(cmp.Or(url, os.Getenv("NATS_URL"), nats.DefaultURL), opts...)
}
