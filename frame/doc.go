// Package frame builds the wire frames understood by the DIS cluster display.
//
// A frame is 18 bytes long and is always transmitted in order, each byte most
// significant bit first:
//
//	byte 0      0xF0      header
//	bytes 1-15  message   left-justified, space padded, truncated to 15 bytes
//	byte 16     0x1C      control
//	byte 17     checksum  (sum(bytes 0..16) mod 256) XOR 0xFF
//
// The checksum makes the 18 bytes of a frame sum to 0xFF modulo 256, so a
// receiver can detect additive corruption. Nothing stronger is claimed.
//
// Example usage:
//
//	f := frame.Encode("HELLO")
//	fmt.Println(f.Payload()) // "HELLO          "
//	fmt.Println(f.Valid())   // true
package frame
