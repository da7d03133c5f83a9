//go:build linux || darwin

package client

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/legamerdc/gkv"
)

func TestAgainstServer(t *testing.T) {
	cfg := gkv.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.Logger = log.New(io.Discard, "", 0)
	s, err := gkv.NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	defer func() {
		s.Stop()
		<-done
	}()

	for _, opts := range [][]Option{nil, {WithCompression()}} {
		c, err := Dial(s.Addr(), append(opts, WithTimeout(5*time.Second))...)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		want := [][]byte{[]byte("hello1"), []byte("hello2"), []byte("hello3"), {}, []byte("hello5")}
		got, err := c.Pipeline(want...)
		c.Close()
		if err != nil {
			t.Fatalf("Pipeline: %v", err)
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("replies mismatch (-want +got):\n%s", diff)
		}
	}
}
