// Package huidu provides a client for discovering and controlling Huidu HD
// LED controller cards on the local network.
//
// # Overview
//
// Devices are found with a UDP broadcast probe on port 10001. Every command
// then runs in its own short TCP session: the client connects, negotiates the
// transport version, obtains a session GUID with GetIFVersion, sends one XML
// command and closes the connection.
//
// # Protocol Architecture
//
//   - All integers are little-endian and fixed width
//   - UDP search: 6-byte probe (0x1001), 25-byte answer (0x1002)
//   - TCP handshake: 8-byte ServiceAsk/ServiceAnswer (0x2001 -> 0x2002)
//   - SDK commands (0x2003/0x2004) carry XML behind a 12-byte header
//   - Large XML payloads are fragmented (max 8000 bytes per fragment)
//
// # Session Flow
//
//  1. TCP connection is established (default port: 10001)
//  2. Transport version negotiation (0x2001 -> 0x2002)
//  3. SDK version negotiation (GetIFVersion XML command)
//  4. The device assigns a GUID used by the command that follows
//  5. The connection is closed
//
// # Quick Start
//
//	client := huidu.NewClient(huidu.WithLogger(slog.Default()))
//	devices, err := client.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if len(devices) == 0 {
//	    return
//	}
//	guids, err := client.FetchPrograms(ctx, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = client.SetPlayControl(ctx, 0, 0, false)
//	err = client.SetText(ctx, 0, 1, true, "hello")
//
// # Addressing
//
// Devices are addressed by their position in the last scan, programs by their
// position in the last FetchPrograms result for that device. Out-of-range
// positions fail with ErrDeviceIndex or ErrProgramIndex before any network
// traffic.
//
// # Thread Safety
//
// A Client owns its device list and program registry and guards them with a
// mutex. Session GUIDs belong to a single TCP session and are never shared, so
// independent Client instances can run concurrently.
package huidu
