package lock

// ReassemblyBuffer accumulates inbound notification chunks for one session
// and extracts complete protocol frames as they become available. It never
// mutates buffered bytes; it only removes what it has emitted and what it
// cannot frame (G-Series bytes before a response header, or the whole
// buffer when a TT-Series ENC byte is not recognized). Any residue after
// extraction remains for the next notification.
type ReassemblyBuffer struct {
	variant Variant
	buf     []byte
}

// NewReassemblyBuffer creates a buffer that applies variant's framing rules.
func NewReassemblyBuffer(variant Variant) *ReassemblyBuffer {
	return &ReassemblyBuffer{variant: variant}
}

// Append adds a notification payload to the tail of the buffer.
func (r *ReassemblyBuffer) Append(chunk []byte) {
	r.buf = append(r.buf, chunk...)
}

// Next attempts to extract the next complete frame. It returns ok=false
// when more data is needed.
func (r *ReassemblyBuffer) Next() (frame []byte, ok bool) {
	switch r.variant {
	case VariantGSeries:
		return r.nextGSeries()
	case VariantTTSeries:
		return r.nextTTSeries()
	default:
		return nil, false
	}
}

func (r *ReassemblyBuffer) nextGSeries() ([]byte, bool) {
	if len(r.buf) >= 3 && r.buf[0] == 0x20 && r.buf[1] == 0xF1 {
		frame := append([]byte(nil), r.buf[:3]...)
		r.buf = r.buf[3:]
		return frame, true
	}

	hdrIdx := indexOf2(r.buf, gResponseHeader[0], gResponseHeader[1])
	if hdrIdx < 0 {
		// No header yet; a short ACK or header may still be arriving
		// split across notification boundaries, so wait for more data
		// without discarding anything.
		return nil, false
	}
	if hdrIdx > 0 {
		r.buf = r.buf[hdrIdx:]
	}

	tailIdx := indexOf2From(r.buf, 2, gResponseTail[0], gResponseTail[1])
	if tailIdx < 0 {
		return nil, false
	}
	end := tailIdx + 2
	frame := append([]byte(nil), r.buf[:end]...)
	r.buf = r.buf[end:]
	return frame, true
}

func (r *ReassemblyBuffer) nextTTSeries() ([]byte, bool) {
	if len(r.buf) < 2 {
		return nil, false
	}
	enc := r.buf[0]
	if enc != TTEncPlain && enc != TTEncAES {
		// Resync: discard everything, the stream is no longer aligned.
		r.buf = nil
		return nil, false
	}
	length := int(r.buf[1])
	bodyLen := length
	if enc == TTEncAES {
		if rem := bodyLen % 16; rem != 0 {
			bodyLen += 16 - rem
		}
	}
	want := 2 + bodyLen + 1
	if len(r.buf) < want {
		return nil, false
	}
	frame := append([]byte(nil), r.buf[:want]...)
	r.buf = r.buf[want:]
	return frame, true
}

func indexOf2(b []byte, a, c byte) int {
	return indexOf2From(b, 0, a, c)
}

func indexOf2From(b []byte, from int, a, c byte) int {
	for i := from; i+1 < len(b); i++ {
		if b[i] == a && b[i+1] == c {
			return i
		}
	}
	return -1
}
