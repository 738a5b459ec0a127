package cache

import (
	"context"
	"errors"
	"testing"
)

type fakePutter struct {
	err   error
	puts  int
	key   string
	ctype string
}

func (f *fakePutter) Put(ctx context.Context, key string, payload []byte, contentType string) error {
	f.puts++
	f.key = key
	f.ctype = contentType
	return f.err
}

func TestAdapter_StoreSuccess(t *testing.T) {
	p := &fakePutter{}
	a := NewAdapter(p)

	ok := a.Store(context.Background(), "run-1", []byte("img"), "image/png")
	if !ok {
		t.Error("Store returned false on success")
	}
	if p.puts != 1 || p.key != "run-1" || p.ctype != "image/png" {
		t.Errorf("unexpected put: %+v", p)
	}
}

func TestAdapter_StoreFailureIsSwallowed(t *testing.T) {
	p := &fakePutter{err: errors.New("redis: connection refused")}
	a := NewAdapter(p)

	// Must not panic, must not propagate.
	if ok := a.Store(context.Background(), "run-1", []byte("img"), "image/png"); ok {
		t.Error("Store reported success despite put error")
	}
}

func TestAdapter_NilStoreIsNoop(t *testing.T) {
	a := NewAdapter(nil)
	if ok := a.Store(context.Background(), "run-1", []byte("img"), "image/png"); ok {
		t.Error("Store reported success with no backing store")
	}
}
