// Package dis drives the text display of an automotive instrument cluster
// (DIS) over its three-wire synchronous serial bus.
//
// The cluster shows one 15 character line. Each message is framed by package
// frame (header, padded text, control byte, checksum) and clocked out bit by
// bit, most significant bit first, entirely from timer callbacks: Submit
// returns as soon as the first expiry is armed.
//
// # Hardware Connection
//
// The bus is three GPIO outputs, usually through a 3.3V to 5V level shifter:
//
//	Cluster Pin → System Pin
//	GND         → GND
//	CLK         → GPIO (any available pin)
//	DATA        → GPIO (any available pin)
//	ENA         → GPIO (any available pin)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"context"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/devices/v3/dis"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		dev, _ := dis.New(&dis.Opts{
//			Clock:  gpioreg.ByName("GPIO14"),
//			Data:   gpioreg.ByName("GPIO15"),
//			Enable: gpioreg.ByName("GPIO18"),
//		})
//		defer dev.Halt()
//
//		dev.Submit("HELLO")
//		dev.Wait(context.Background())
//	}
//
// # Bus Protocol
//
// Idle lines are clock high, data high, enable low. A transmission goes:
//
//	enable high, wait 500µs
//	enable low, wait 400µs
//	enable high, wait ~100ns
//	for each bit: data = NOT bit, clock low, wait 200µs, clock high, wait 100µs
//	enable low, data high, clock high
//
// The receiver samples data on the rising clock edge. Data is inverted: a 1
// bit drives the line low.
//
// A frame byte equal to zero ends the transmission early. The only byte that
// can be zero is the checksum, for a few messages; set Opts.SendAllBytes to
// always transmit the full frame.
//
// # Busy Bus
//
// Only one message is in flight at a time. Submit returns ErrBusy, without
// touching the bus, until the previous frame is out. Use Wait to block until
// the bus is idle.
//
// # Failures
//
// There is no acknowledgement in the protocol. When a pin write or timer arm
// fails mid-frame the transmission is dropped, the lines go back to idle and
// the error is kept in Status().LastErr. The next Submit starts afresh.
//
// # Timers
//
// By default the device paces the bus with a HostTimer built on Go runtime
// timers. Any Timer implementation can be supplied through Opts.Timer, for
// example a hardware timer or the manual timer of package distest.
package dis
