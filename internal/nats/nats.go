package nats

import (
	"os"

	"github.com/nats-io/nats.go"
)

const defaultURL = "nats://localhost:4222"

// Nats wraps the connection the tag relay rides on. Each service names
// its connection so taps can be traced to a process on the NATS side.
type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

func Connect(service string) (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}
	if n.Url == "" {
		n.Url = defaultURL
	}

	opts := []nats.Option{
		nats.Name("presensi-" + service + "-service"),
	}
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}
	n.Conn = conn

	return n, nil
}
