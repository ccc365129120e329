package metrics

import "testing"

// BenchmarkCollector_PlayerJoined measures the join/leave pair done
// for every connection.
func BenchmarkCollector_PlayerJoined(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.PlayerJoined()
		c.PlayerLeft()
	}
}

// BenchmarkCollector_Dig measures the per-command counter overhead.
func BenchmarkCollector_Dig(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Command()
		c.Dig(i%7 == 0)
	}
}

// BenchmarkCollector_JSON measures JSON export overhead.
func BenchmarkCollector_JSON(b *testing.B) {
	c := New()
	c.PlayerJoined()
	c.Dig(true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.JSON()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.PlayerJoined()
		c.Dig(true)
		c.RecordError("test")
	}
}
