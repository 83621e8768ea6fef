package lock

import (
	"crypto/rand"
	"log/slog"
	"os"
	"sync"
	"time"
)

func bcdByte(v int) byte {
	return byte(((v/10)%10)<<4 | (v % 10))
}

// NowBCD6 returns the current wall-clock time as six BCD bytes
// [YY MM DD hh mm ss], with YY = year mod 100.
func NowBCD6() [6]byte {
	return timeToBCD6(timeNow())
}

func timeToBCD6(t time.Time) [6]byte {
	return [6]byte{
		bcdByte(t.Year() % 100),
		bcdByte(int(t.Month())),
		bcdByte(t.Day()),
		bcdByte(t.Hour()),
		bcdByte(t.Minute()),
		bcdByte(t.Second()),
	}
}

// SerialClock produces the process-wide monotonic 6-byte BCD serial used by
// encrypted G-Series envelopes. The zero value is ready to use; production
// code should normally share DefaultSerialClock, while tests construct
// their own instance to keep its last-serial state isolated.
type SerialClock struct {
	mu   sync.Mutex
	last [6]byte
	have bool
}

// DefaultSerialClock is the process-wide instance encrypted G-Series frames
// use unless a Session is configured with a different one (see
// WithSerialClock).
var DefaultSerialClock = &SerialClock{}

// Next returns the next 6-byte BCD serial derived from wall-clock time. If
// the environment variable WELOCK_TEST_SERIAL holds a 12-character hex
// string, that value is returned verbatim instead (deterministic tests
// only; never set in production).
func (c *SerialClock) Next() [6]byte {
	if hexVal := os.Getenv("WELOCK_TEST_SERIAL"); len(hexVal) == 12 {
		if b, ok := decodeHex12(hexVal); ok {
			return b
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := timeToBCD6(timeNow())
	if c.have && bcd6LessOrEqual(next, c.last) {
		slog.Warn("serial clock monotonicity violated, wall clock went backwards or too fast",
			"prev", c.last, "next", next)
	}
	c.last = next
	c.have = true
	return next
}

func bcd6LessOrEqual(a, b [6]byte) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			return true
		}
	}
	return true // equal
}

func decodeHex12(s string) ([6]byte, bool) {
	var out [6]byte
	for i := 0; i < 6; i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return out, false
		}
		out[i] = hi<<4 | lo
	}
	return out, true
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// NonceRandom returns a 4-byte anti-replay nonce. This is padding against
// replay, not a cryptographic guarantee; a process-local PRNG is
// sufficient, which is why crypto/rand is used purely for its convenient
// io.Reader shape rather than for any security property of the nonce
// itself. If WELOCK_TEST_NONCE holds an 8-character hex string, that value
// is returned verbatim instead (deterministic tests only).
func NonceRandom() [4]byte {
	if hexVal := os.Getenv("WELOCK_TEST_NONCE"); len(hexVal) == 8 {
		var out [4]byte
		ok := true
		for i := 0; i < 4; i++ {
			hi, ok1 := hexNibble(hexVal[i*2])
			lo, ok2 := hexNibble(hexVal[i*2+1])
			if !ok1 || !ok2 {
				ok = false
				break
			}
			out[i] = hi<<4 | lo
		}
		if ok {
			return out
		}
	}
	var out [4]byte
	_, _ = rand.Read(out[:])
	return out
}
