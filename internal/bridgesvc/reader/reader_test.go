package reader

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/presensia/presensi-services/internal/comm"
)

func TestScanTokensSplitsCompleteLines(t *testing.T) {
	tokens, rest := scanTokens([]byte("04A1B2C3\r\n04FFEE00\n04AA"))

	want := []string{"04A1B2C3", "04FFEE00"}
	if len(tokens) != len(want) {
		t.Fatalf("got tokens %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
	if string(rest) != "04AA" {
		t.Errorf("rest = %q, want partial line 04AA", rest)
	}
}

func TestScanTokensDiscardsInvalidBytes(t *testing.T) {
	tokens, _ := scanTokens([]byte("\xff\xfe04A1B2C3\n"))
	if len(tokens) != 1 || tokens[0] != "04A1B2C3" {
		t.Errorf("tokens = %v, want [04A1B2C3]", tokens)
	}
}

func TestScanTokensSkipsEmptyLines(t *testing.T) {
	tokens, _ := scanTokens([]byte("\n\r\n  \nABCD\n"))
	if len(tokens) != 1 || tokens[0] != "ABCD" {
		t.Errorf("tokens = %v, want [ABCD]", tokens)
	}
}

// fakePort replays a scripted sequence of reads, then fails.
type fakePort struct {
	chunks [][]byte
	i      int
	closed bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if p.i >= len(p.chunks) {
		return 0, io.EOF
	}
	n := copy(buf, p.chunks[p.i])
	p.i++
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

type collectSink struct {
	mu  sync.Mutex
	ids []string
}

func (s *collectSink) Publish(ev comm.TagEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, ev.UID)
}

func (s *collectSink) uids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func TestRunEmitsAcrossReconnects(t *testing.T) {
	sink := &collectSink{}
	r := New("/dev/null", 9600, time.Millisecond, 0, sink)

	ports := []*fakePort{
		{chunks: [][]byte{[]byte("AAAA\n")}},
		{chunks: [][]byte{[]byte("BB"), []byte("BB\n")}},
	}
	opened := 0
	r.openPort = func() (port, error) {
		if opened >= len(ports) {
			return nil, io.ErrClosedPipe
		}
		p := ports[opened]
		opened++
		return p, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(sink.uids()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", sink.uids())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	got := sink.uids()
	if got[0] != "AAAA" || got[1] != "BBBB" {
		t.Errorf("uids = %v, want [AAAA BBBB]", got)
	}
	for i, p := range ports {
		if !p.closed {
			t.Errorf("port %d was not closed on failure", i)
		}
	}
}

func TestConsumeDropsBootNoiseDuringGraceWindow(t *testing.T) {
	sink := &collectSink{}
	r := New("/dev/null", 9600, time.Millisecond, time.Hour, sink)

	p := &fakePort{chunks: [][]byte{[]byte("BOOTNOISE\n")}}
	if err := r.consume(context.Background(), p); err != io.EOF {
		t.Fatalf("consume returned %v, want io.EOF", err)
	}

	if uids := sink.uids(); len(uids) != 0 {
		t.Errorf("grace window leaked events: %v", uids)
	}
}

func TestRunStopsWhileDisconnected(t *testing.T) {
	r := New("/dev/null", 9600, time.Hour, 0)
	r.openPort = func() (port, error) { return nil, io.ErrClosedPipe }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly during backoff")
	}
}
