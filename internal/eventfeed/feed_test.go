package eventfeed

import (
	"fmt"
	"testing"
)

func TestHandleEventIndexesCreation(t *testing.T) {
	f := NewFeed("ws://unused", "0xC0FFEE")
	f.handleEvent("0xc0ffee", []string{"0x7", "0xA", "0xB"})

	gid, ok := f.Lookup("0xa", "0xb")
	if !ok || gid != 7 {
		t.Fatalf("Lookup = %d %v, want 7 true", gid, ok)
	}
	if _, ok := f.Lookup("0xa", "0xdead"); ok {
		t.Fatalf("lookup should miss for unknown opponent")
	}
}

func TestHandleEventNewestWins(t *testing.T) {
	f := NewFeed("ws://unused", "0xc")
	f.handleEvent("0xc", []string{"0x3", "0xa", "0xb"})
	f.handleEvent("0xc", []string{"0x9", "0xa", "0xb"})

	gid, ok := f.Lookup("0xa", "0xb")
	if !ok || gid != 9 {
		t.Fatalf("latest creation must win: %d %v", gid, ok)
	}
}

func TestHandleEventFilters(t *testing.T) {
	f := NewFeed("ws://unused", "0xc")

	f.handleEvent("0xother", []string{"0x1", "0xa", "0xb"}) // wrong contract
	f.handleEvent("0xc", []string{"0x1", "0xa"})            // too few fields
	f.handleEvent("0xc", []string{"junk", "0xa", "0xb"})    // malformed id

	if _, ok := f.Lookup("0xa", "0xb"); ok {
		t.Fatalf("filtered events must not be indexed")
	}
}

func TestRingBufferBound(t *testing.T) {
	f := NewFeed("ws://unused", "0xc")
	for i := 0; i < indexCapacity+10; i++ {
		f.handleEvent("0xc", []string{fmt.Sprintf("0x%x", i), "0xa", fmt.Sprintf("0x%x", 1000+i)})
	}
	if len(f.recent) != indexCapacity {
		t.Fatalf("ring exceeded capacity: %d", len(f.recent))
	}
	// the oldest entries fell off
	if _, ok := f.Lookup("0xa", fmt.Sprintf("0x%x", 1000)); ok {
		t.Fatalf("evicted event still resolvable")
	}
	if _, ok := f.Lookup("0xa", fmt.Sprintf("0x%x", 1000+indexCapacity+9)); !ok {
		t.Fatalf("newest event missing")
	}
}

func TestOnCreatedCallback(t *testing.T) {
	f := NewFeed("ws://unused", "0xc")
	var got []GameCreated
	f.OnCreated(func(ev GameCreated) { got = append(got, ev) })

	f.handleEvent("0xc", []string{"0x5", "0xa", "0xb"})
	if len(got) != 1 || got[0].GameID != 5 || got[0].Creator != "0xa" {
		t.Fatalf("callback not invoked correctly: %+v", got)
	}
}
