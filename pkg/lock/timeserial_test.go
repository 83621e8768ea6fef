package lock

import (
	"os"
	"sync"
	"testing"
	"time"
)

func TestTimeToBCD6Encoding(t *testing.T) {
	tm := time.Date(2026, time.March, 5, 14, 30, 59, 0, time.UTC)
	got := timeToBCD6(tm)
	want := [6]byte{0x26, 0x03, 0x05, 0x14, 0x30, 0x59}
	if got != want {
		t.Fatalf("timeToBCD6 = %x, want %x", got, want)
	}
}

func TestSerialClockNextHonorsTestOverride(t *testing.T) {
	t.Setenv("WELOCK_TEST_SERIAL", "0102030405aa")
	c := &SerialClock{}
	got := c.Next()
	want := [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0xaa}
	if got != want {
		t.Fatalf("Next() = %x, want %x", got, want)
	}
}

func TestSerialClockNextIsMonotonicWithoutOverride(t *testing.T) {
	os.Unsetenv("WELOCK_TEST_SERIAL")
	c := &SerialClock{}
	first := c.Next()
	second := c.Next()
	if bcd6LessOrEqual(second, first) && second != first {
		t.Fatalf("serial went backwards: %x then %x", first, second)
	}
}

// TestSerialClockNextConcurrentCallersAreSerialized drives many goroutines
// through one SerialClock's Next() concurrently. The clock's own mutex must
// serialize every call; run with -race to confirm there's no unguarded
// access to last/have.
func TestSerialClockNextConcurrentCallersAreSerialized(t *testing.T) {
	os.Unsetenv("WELOCK_TEST_SERIAL")
	c := &SerialClock{}

	const callers = 32
	var wg sync.WaitGroup
	serials := make([][6]byte, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			serials[i] = c.Next()
		}()
	}
	wg.Wait()

	for _, s := range serials {
		if !bcd6LessOrEqual(s, c.last) {
			t.Fatalf("serial %x observed after clock settled on an earlier last %x", s, c.last)
		}
	}
}

func TestNonceRandomHonorsTestOverride(t *testing.T) {
	t.Setenv("WELOCK_TEST_NONCE", "deadbeef")
	got := NonceRandom()
	want := [4]byte{0xde, 0xad, 0xbe, 0xef}
	if got != want {
		t.Fatalf("NonceRandom() = %x, want %x", got, want)
	}
}

func TestNonceRandomDiffersBetweenCallsWithoutOverride(t *testing.T) {
	os.Unsetenv("WELOCK_TEST_NONCE")
	a := NonceRandom()
	b := NonceRandom()
	if a == b {
		t.Fatalf("two consecutive random nonces collided: %x", a)
	}
}
