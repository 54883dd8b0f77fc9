package transport

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSendQueuesWithoutBlocking(t *testing.T) {
	c := NewConn(nil, testLogger(), 2)
	if err := c.Send(map[string]string{"type": "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Send(map[string]string{"type": "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	c := NewConn(nil, testLogger(), 1)
	if err := c.Send("first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Send("second"); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	c := NewConn(nil, testLogger(), 4)
	c.Close()
	if err := c.Send("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewConn(nil, testLogger(), 4)
	c.Close()
	c.Close() // must not panic
}

func TestSendRejectsUnmarshalable(t *testing.T) {
	c := NewConn(nil, testLogger(), 4)
	if err := c.Send(make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestIDBinding(t *testing.T) {
	c := NewConn(nil, testLogger(), 4)
	if c.ID() != "" {
		t.Fatal("fresh connection must have no id")
	}
	c.SetID("u1")
	if c.ID() != "u1" {
		t.Fatalf("id not bound: %q", c.ID())
	}
}
