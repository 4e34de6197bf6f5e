package cache

import (
	"context"
	"errors"
	"testing"
)

func TestOpen_Memory(t *testing.T) {
	c, err := Open(context.Background(), Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", c)
	}
}

func TestOpen_Ristretto(t *testing.T) {
	c, err := Open(context.Background(), Options{Driver: DriverRistretto})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*Ristretto); !ok {
		t.Errorf("expected *Ristretto, got %T", c)
	}
}

func TestOpen_RedisIsLazy(t *testing.T) {
	c, err := Open(context.Background(), Options{Driver: DriverRedis, Endpoint: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := c.(*Redis); !ok {
		t.Errorf("expected *Redis, got %T", c)
	}
	if err := c.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpen_MissingEndpoint(t *testing.T) {
	for _, d := range []Driver{DriverRedis, DriverNATS} {
		if _, err := Open(context.Background(), Options{Driver: d}); err == nil {
			t.Errorf("%s: expected error without endpoint", d)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "momento"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}
