package frame

import (
	"fmt"
	"strings"
)

const (
	// Header is the first byte of every frame.
	Header byte = 0xF0
	// Control follows the payload.
	Control byte = 0x1C

	// PayloadLen is the fixed number of message bytes in a frame.
	PayloadLen = 15
	// Size is the number of bytes transmitted for one frame.
	Size = 1 + PayloadLen + 1 + 1
	// MaxLen bounds the transmit buffer. Bytes past Size are zero and act as
	// the terminator.
	MaxLen = 20

	pad byte = ' '
)

// Frame is an encoded message ready for bit-level transmission.
type Frame [Size]byte

// Encode builds the frame for text.
//
// text is cut at its first NUL byte, truncated to PayloadLen bytes and padded
// on the right with spaces. Encode never fails: oversized input is shortened,
// not rejected. Use Accepted to learn how many bytes of text made it into the
// payload.
func Encode(text string) Frame {
	var f Frame
	f[0] = Header
	msg := text[:Accepted(text)]
	n := copy(f[1:1+PayloadLen], msg)
	for i := 1 + n; i <= PayloadLen; i++ {
		f[i] = pad
	}
	f[Size-2] = Control
	f[Size-1] = Checksum(f[:Size-1])
	return f
}

// Accepted returns how many leading bytes of text end up in a frame payload.
func Accepted(text string) int {
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	if len(text) > PayloadLen {
		return PayloadLen
	}
	return len(text)
}

// Truncated reports whether Encode would drop part of text.
func Truncated(text string) bool {
	return Accepted(text) < len(text)
}

// Checksum returns the one's complement of the 8-bit sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum ^ 0xFF
}

// Valid reports whether header, control and checksum are in place.
func (f Frame) Valid() bool {
	return f[0] == Header && f[Size-2] == Control && Checksum(f[:Size-1]) == f[Size-1]
}

// Payload returns the padded message bytes.
func (f Frame) Payload() string {
	return string(f[1 : 1+PayloadLen])
}

// Checksum returns the trailing check byte.
func (f Frame) Checksum() byte {
	return f[Size-1]
}

// Bytes returns a copy of the frame.
func (f Frame) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, f[:])
	return b
}

// String returns the frame as a hex dump, suitable for logs.
func (f Frame) String() string {
	return fmt.Sprintf("% X", f[:])
}
