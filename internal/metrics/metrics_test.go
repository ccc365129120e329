package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCollector_Players(t *testing.T) {
	c := New()

	if n := c.PlayerJoined(); n != 1 {
		t.Errorf("first join sees %d, want 1", n)
	}
	if n := c.PlayerJoined(); n != 2 {
		t.Errorf("second join sees %d, want 2", n)
	}
	c.PlayerLeft()
	if c.Players() != 1 {
		t.Errorf("active = %d, want 1", c.Players())
	}
	if n := c.PlayerJoined(); n != 2 {
		t.Errorf("rejoin sees %d, want 2", n)
	}
	if c.TotalPlayers() != 3 {
		t.Errorf("total = %d, want 3", c.TotalPlayers())
	}
}

// TestCollector_PlayerJoinedUnique checks that concurrent joins each
// observe a distinct count, so no two welcome messages can collide.
func TestCollector_PlayerJoinedUnique(t *testing.T) {
	c := New()
	const n = 64

	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.PlayerJoined()
		}()
	}
	wg.Wait()
	close(seen)

	got := map[int64]bool{}
	for v := range seen {
		if got[v] {
			t.Fatalf("count %d handed out twice", v)
		}
		got[v] = true
	}
	if c.Players() != n {
		t.Errorf("active = %d, want %d", c.Players(), n)
	}
}

func TestCollector_Gameplay(t *testing.T) {
	c := New()

	c.Command()
	c.Command()
	c.Dig(false)
	c.Dig(true)
	c.Dig(true)
	c.Flag()
	c.Deflag()

	snap := c.Snapshot()
	if snap.Commands != 2 || snap.Digs != 3 || snap.Explosions != 2 ||
		snap.Flags != 1 || snap.Deflags != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if c.Explosions() != 2 {
		t.Errorf("explosions = %d, want 2", c.Explosions())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	snap := c.Snapshot()
	if snap.LastErrorMessage != "second error" || snap.LastError == "" {
		t.Errorf("last error not recorded: %+v", snap)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.PlayerJoined()
	c.Dig(true)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.PlayersActive != 1 {
		t.Errorf("JSON players = %d", snap.PlayersActive)
	}
	if snap.Explosions != 1 {
		t.Errorf("JSON explosions = %d", snap.Explosions)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	if c.PlayerJoined() != 0 {
		t.Error("nil collector should return 0")
	}
	c.PlayerLeft()
	c.Command()
	c.Dig(true)
	c.Flag()
	c.Deflag()
	c.RecordError("test")

	if c.Players() != 0 || c.TotalPlayers() != 0 || c.ErrorCount() != 0 || c.Explosions() != 0 {
		t.Error("nil collector should return 0")
	}
	if snap := c.Snapshot(); snap.PlayersActive != 0 {
		t.Error("nil snapshot should be zero")
	}
	if c.JSON() == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
