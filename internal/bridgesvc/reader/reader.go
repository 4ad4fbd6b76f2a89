package reader

import (
	"bytes"
	"context"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/presensia/presensi-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Sink receives every tag event the reader decodes. Delivery is
// best-effort and must not block for long, the reader calls sinks
// inline from its read loop.
type Sink interface {
	Publish(ev comm.TagEvent)
}

type port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Reader owns the serial handle to the RFID device. It is the only
// code allowed to touch the port.
type Reader struct {
	portName string
	baudRate int
	backoff  time.Duration
	grace    time.Duration
	sinks    []Sink

	openPort func() (port, error)
}

func New(portName string, baudRate int, backoff, grace time.Duration, sinks ...Sink) *Reader {
	r := &Reader{
		portName: portName,
		baudRate: baudRate,
		backoff:  backoff,
		grace:    grace,
		sinks:    sinks,
	}
	r.openPort = func() (port, error) {
		p, err := serial.Open(r.portName, &serial.Mode{BaudRate: r.baudRate})
		if err != nil {
			return nil, err
		}
		// bounded reads so the loop can notice cancellation
		if err := p.SetReadTimeout(time.Second); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	}
	return r
}

// Run blocks until ctx is cancelled. A disconnected or missing device
// is an expected condition: the reader closes the handle, waits the
// backoff interval and reconnects, forever.
func (r *Reader) Run(ctx context.Context) {
	for {
		p, err := r.openPort()
		if err != nil {
			log.Warnf("unable to open serial port %s: %v, retrying in %s", r.portName, err, r.backoff)
			if !r.sleep(ctx) {
				return
			}
			continue
		}

		log.Infof("serial port %s connected at %d baud", r.portName, r.baudRate)
		err = r.consume(ctx, p)
		p.Close()

		if ctx.Err() != nil {
			log.Info("serial reader stopped")
			return
		}

		log.Warnf("serial read failed: %v, reconnecting in %s", err, r.backoff)
		if !r.sleep(ctx) {
			return
		}
	}
}

func (r *Reader) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.backoff):
		return true
	}
}

func (r *Reader) consume(ctx context.Context, p port) error {
	opened := time.Now()
	buf := make([]byte, 256)
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			// read timeout, loop back to check for cancellation
			continue
		}

		pending = append(pending, buf[:n]...)
		var tokens []string
		tokens, pending = scanTokens(pending)

		if time.Since(opened) < r.grace {
			// the device spews garbage on the line while booting,
			// drop everything inside the grace window
			continue
		}

		for _, uid := range tokens {
			ev := comm.TagEvent{UID: uid, At: time.Now()}
			log.Infof("tag detected: %s", uid)
			for _, s := range r.sinks {
				s.Publish(ev)
			}
		}
	}
}

// scanTokens splits the accumulated bytes on newlines and returns the
// complete, cleaned tokens plus the trailing partial line. Bytes that
// are not valid text are discarded rather than failing the read, the
// device emits line noise at boot.
func scanTokens(pending []byte) ([]string, []byte) {
	var tokens []string
	for {
		i := bytes.IndexByte(pending, '\n')
		if i < 0 {
			return tokens, pending
		}
		line := strings.TrimSpace(strings.ToValidUTF8(string(pending[:i]), ""))
		pending = pending[i+1:]
		if line != "" {
			tokens = append(tokens, line)
		}
	}
}
