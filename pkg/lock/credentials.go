package lock

import (
	"fmt"
	"regexp"
	"time"
)

// Variant identifies which wire protocol a set of Credentials speaks.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantGSeries
	VariantTTSeries
)

func (v Variant) String() string {
	switch v {
	case VariantGSeries:
		return "g-series"
	case VariantTTSeries:
		return "tt-series"
	default:
		return "unknown"
	}
}

// autoDetectLockID is the TT-Series sentinel meaning "discover the lock-id
// from the device itself rather than trust the credential".
const autoDetectLockID = "00000000"

var ttLockIDNameRE = regexp.MustCompile(`^\d{8}$`)

// Credentials is an immutable bundle identifying one device and, for
// G-Series, the key material needed to talk to it. Construct with
// NewGSeriesCredentials or NewTTSeriesCredentials; both validate eagerly.
type Credentials struct {
	Variant   Variant
	CreatedAt time.Time

	// G-Series fields.
	AESKey   []byte // 16 bytes, required
	Password string // optional, 4-16 chars

	// TT-Series fields.
	LockID     string // 8 decimal digits, or autoDetectLockID
	TTPassword string // 1-6 digits
	TTAESKey   []byte // optional, 16 bytes
}

// NewGSeriesCredentials validates and constructs G-Series credentials.
func NewGSeriesCredentials(aesKey []byte, password string) (Credentials, error) {
	if len(aesKey) != 16 {
		return Credentials{}, newErr("new_credentials", ErrInvalidCredentials,
			fmt.Errorf("G-Series AES key must be 16 bytes, got %d", len(aesKey)))
	}
	if password != "" && (len(password) < 4 || len(password) > 16) {
		return Credentials{}, newErr("new_credentials", ErrInvalidCredentials,
			fmt.Errorf("G-Series password length must be 4-16, got %d", len(password)))
	}
	key := make([]byte, 16)
	copy(key, aesKey)
	return Credentials{
		Variant:   VariantGSeries,
		CreatedAt: timeNow(),
		AESKey:    key,
		Password:  password,
	}, nil
}

// NewTTSeriesCredentials validates and constructs TT-Series credentials.
// lockID is either 8 decimal digits or "" (treated as auto-detect).
func NewTTSeriesCredentials(lockID, password string, aesKey []byte) (Credentials, error) {
	if lockID == "" {
		lockID = autoDetectLockID
	}
	if !ttLockIDNameRE.MatchString(lockID) {
		return Credentials{}, newErr("new_credentials", ErrInvalidCredentials,
			fmt.Errorf("TT-Series lock-id must be 8 decimal digits, got %q", lockID))
	}
	if len(password) < 1 || len(password) > 6 {
		return Credentials{}, newErr("new_credentials", ErrInvalidCredentials,
			fmt.Errorf("TT-Series password length must be 1-6, got %d", len(password)))
	}
	var key []byte
	if aesKey != nil {
		if len(aesKey) != 16 {
			return Credentials{}, newErr("new_credentials", ErrInvalidCredentials,
				fmt.Errorf("TT-Series AES key must be 16 bytes, got %d", len(aesKey)))
		}
		key = make([]byte, 16)
		copy(key, aesKey)
	}
	return Credentials{
		Variant:    VariantTTSeries,
		CreatedAt:  timeNow(),
		LockID:     lockID,
		TTPassword: password,
		TTAESKey:   key,
	}, nil
}

// IsAutoDetect reports whether these TT-Series credentials need the
// session to discover the real lock-id from the device.
func (c Credentials) IsAutoDetect() bool {
	return c.Variant == VariantTTSeries && c.LockID == autoDetectLockID
}

// ValidateAge rejects credentials older than window. A non-positive window
// disables the check.
func (c Credentials) ValidateAge(window time.Duration) error {
	if window <= 0 {
		return nil
	}
	if timeNow().Sub(c.CreatedAt) > window {
		return newErr("validate_age", ErrInvalidCredentials,
			fmt.Errorf("credentials created at %s exceed validity window %s", c.CreatedAt, window))
	}
	return nil
}

// timeNow is a var so tests can freeze it; production code never overrides it.
var timeNow = time.Now
