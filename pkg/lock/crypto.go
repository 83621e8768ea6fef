package lock

import (
	"crypto/aes"
	"fmt"
)

// CryptoOption configures the lenient edges of the AES helpers below. The
// zero value of cryptoOptions is the strict (default) behavior.
type CryptoOption func(*cryptoOptions)

type cryptoOptions struct {
	lenientKey bool
}

// WithLenientKey allows AESEncryptECBZeroPad/AESDecryptECB to accept
// keys that aren't exactly 16 bytes by truncating or zero-padding them,
// instead of rejecting them outright. Off by default; callers that need it
// should treat it as a documented compatibility shim, not the common path.
func WithLenientKey() CryptoOption {
	return func(o *cryptoOptions) { o.lenientKey = true }
}

func normalizeKey(key []byte, opts cryptoOptions) ([]byte, error) {
	if len(key) == 16 {
		return key, nil
	}
	if !opts.lenientKey {
		return nil, fmt.Errorf("AES key must be 16 bytes, got %d", len(key))
	}
	out := make([]byte, 16)
	copy(out, key)
	return out, nil
}

// zeroPad16 returns data padded with zero bytes up to the next multiple of
// 16, copying rather than mutating the input.
func zeroPad16(data []byte) []byte {
	rem := len(data) % 16
	if rem == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	out := make([]byte, len(data)+16-rem)
	copy(out, data)
	return out
}

// AESEncryptECBZeroPad zero-pads plaintext to a 16-byte boundary and
// encrypts it block-by-block in ECB mode. The returned ciphertext length is
// always a multiple of 16.
func AESEncryptECBZeroPad(key, plaintext []byte, opts ...CryptoOption) ([]byte, error) {
	var o cryptoOptions
	for _, fn := range opts {
		fn(&o)
	}
	k, err := normalizeKey(key, o)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	padded := zeroPad16(plaintext)
	out := make([]byte, len(padded))
	for off := 0; off < len(padded); off += 16 {
		block.Encrypt(out[off:off+16], padded[off:off+16])
	}
	return out, nil
}

// AESDecryptECB decrypts ciphertext (which must be a multiple of 16 bytes
// long) block-by-block in ECB mode. The caller is responsible for stripping
// any trailing zero padding and structural prefixes.
func AESDecryptECB(key, ciphertext []byte, opts ...CryptoOption) ([]byte, error) {
	var o cryptoOptions
	for _, fn := range opts {
		fn(&o)
	}
	k, err := normalizeKey(key, o)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%16 != 0 {
		return nil, fmt.Errorf("ECB ciphertext must be a non-zero multiple of 16 bytes, got %d", len(ciphertext))
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	for off := 0; off < len(ciphertext); off += 16 {
		block.Decrypt(out[off:off+16], ciphertext[off:off+16])
	}
	return out, nil
}

// aesECBEncryptBlock encrypts exactly one 16-byte block. The frame codecs
// do not call it; they encrypt whole messages with AESEncryptECBZeroPad.
func aesECBEncryptBlock(key, block16 []byte) ([]byte, error) {
	if len(block16) != 16 {
		return nil, fmt.Errorf("ECB block must be 16 bytes, got %d", len(block16))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 16)
	block.Encrypt(out, block16)
	return out, nil
}

// CRC16CCITT computes CRC-16/CCITT (poly 0x1021, init 0xFFFF, no reflection,
// no output XOR) over data. Used by the G-Series codec over the plaintext
// content of an encrypted envelope.
func CRC16CCITT(data []byte) uint16 {
	const poly = 0x1021
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// crc8MaximTable is the 256-entry lookup table for CRC-8/MAXIM (Dallas/Maxim,
// poly x^8+x^5+x^4+1 = 0x8C reflected, init 0x00).
var crc8MaximTable [256]byte

func init() {
	const poly = 0x8C // reflected form of 0x31
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		crc8MaximTable[i] = crc
	}
}

// CRC8Maxim computes CRC-8/MAXIM over data using the precomputed table.
// Used by the TT-Series codec over ENC‖LEN‖BODY.
func CRC8Maxim(data []byte) byte {
	crc := byte(0x00)
	for _, b := range data {
		crc = crc8MaximTable[crc^b]
	}
	return crc
}

// SunCheck computes the single-byte G-Series outer checksum: sum all bytes
// modulo 256, two's-complement negate, and fold any result above 0xF0 down
// by 0x10. This is the V11 production rule (see DESIGN.md for the
// alternate revision this module deliberately does not implement).
func SunCheck(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	chk := byte((^sum) + 1)
	if chk > 0xF0 {
		chk -= 0x10
	}
	return chk
}
