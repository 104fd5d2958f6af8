package huidu

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScanFiltersDatagrams(t *testing.T) {
	valid := []fakeDatagram{
		{searchAnswer("DEV-A", 0x1000005, 1), udpFrom("192.168.6.10")},
		{searchAnswer("DEV-B", 0x1000005, 0), udpFrom("192.168.6.11")},
		{searchAnswer("DEV-C", 0x1000006, 3), udpFrom("192.168.6.12")},
	}
	wrongCmd := searchAnswer("DEV-X", 0x1000005, 0)
	wrongCmd[4] = 0x01

	conn := &fakePacketConn{replies: []fakeDatagram{
		valid[0],
		{[]byte{0x01, 0x02, 0x03}, udpFrom("192.168.6.99")},
		valid[1],
		{wrongCmd, udpFrom("192.168.6.98")},
		{append(searchAnswer("DEV-Y", 0x1000005, 0), 0x00), udpFrom("192.168.6.97")},
		valid[2],
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewClient(
		WithPacketListener(&fakeListener{conn: conn}),
		WithMaxDevices(8),
		WithScanTimeout(10*time.Millisecond),
		WithMetrics(metrics),
	)

	devices, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(devices) != len(valid) {
		t.Fatalf("expected %d devices, got %d: %v", len(valid), len(devices), devices)
	}
	for i, want := range []string{"DEV-A", "DEV-B", "DEV-C"} {
		if devices[i].IDString() != want {
			t.Errorf("device %d: expected %s, got %s", i, want, devices[i].IDString())
		}
		if devices[i].Port != DefaultPort {
			t.Errorf("device %d: expected port %d, got %d", i, DefaultPort, devices[i].Port)
		}
	}
	if devices[2].Host != "192.168.6.12" || devices[2].Version != 0x1000006 || devices[2].Change != 3 {
		t.Errorf("unexpected descriptor %+v", devices[2])
	}

	if conn.reads != 8 {
		t.Errorf("scan must be attempt-bounded: expected 8 reads, got %d", conn.reads)
	}
	if !conn.closed {
		t.Error("socket not closed")
	}
	if len(conn.writes) != 1 || !bytes.Equal(conn.writes[0], EncodeProbe(udpVersion)) {
		t.Errorf("unexpected probe writes % x", conn.writes)
	}
	if conn.targets[0].String() != DefaultBroadcastAddress {
		t.Errorf("probe sent to %s", conn.targets[0])
	}

	if got := testutil.ToFloat64(metrics.DatagramsDiscarded); got != 3 {
		t.Errorf("expected 3 discarded datagrams, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DevicesFound); got != 3 {
		t.Errorf("expected devices gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Scans.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 successful scan, got %v", got)
	}
}

func TestScanStopsAtAttemptBudget(t *testing.T) {
	conn := &fakePacketConn{replies: []fakeDatagram{
		{searchAnswer("DEV-A", 0x1000005, 0), udpFrom("10.0.0.1")},
		{searchAnswer("DEV-B", 0x1000005, 0), udpFrom("10.0.0.2")},
		{searchAnswer("DEV-C", 0x1000005, 0), udpFrom("10.0.0.3")},
	}}
	c := NewClient(WithPacketListener(&fakeListener{conn: conn}), WithMaxDevices(2))

	devices, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("expected capacity-bounded result of 2, got %d", len(devices))
	}
	if conn.reads != 2 {
		t.Errorf("expected 2 reads, got %d", conn.reads)
	}
}

func TestScanReplacesDeviceList(t *testing.T) {
	conn := &fakePacketConn{replies: []fakeDatagram{
		{searchAnswer("DEV-A", 0x1000005, 0), udpFrom("10.0.0.1")},
	}}
	c := NewClient(WithPacketListener(&fakeListener{conn: conn}), WithScanTimeout(time.Millisecond))
	if _, err := c.AddDevice("10.0.0.50", 0); err != nil {
		t.Fatalf("AddDevice failed: %v", err)
	}
	if err := c.programs.Replace(0, []string{"old"}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if _, err := c.Scan(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	devices := c.Devices()
	if len(devices) != 1 || devices[0].Host != "10.0.0.1" {
		t.Errorf("expected list to be replaced, got %v", devices)
	}
	if c.programs.Count(0) != 0 {
		t.Error("program registry must be reset by a new scan")
	}

	devices[0].Host = "changed"
	if c.Devices()[0].Host != "10.0.0.1" {
		t.Error("Devices must return a copy")
	}
}

func TestScanSetupFailure(t *testing.T) {
	tests := []struct {
		name     string
		listener *fakeListener
		addr     string
	}{
		{
			name:     "listen fails",
			listener: &fakeListener{err: errors.New("permission denied")},
			addr:     DefaultBroadcastAddress,
		},
		{
			name:     "send fails",
			listener: &fakeListener{conn: &fakePacketConn{failTx: errors.New("network unreachable")}},
			addr:     DefaultBroadcastAddress,
		},
		{
			name:     "bad broadcast address",
			listener: &fakeListener{conn: &fakePacketConn{}},
			addr:     "not an address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := NewMetrics(reg)
			c := NewClient(WithPacketListener(tt.listener), WithBroadcastAddress(tt.addr), WithMetrics(metrics))
			if _, err := c.AddDevice("10.0.0.50", 10001); err != nil {
				t.Fatalf("AddDevice failed: %v", err)
			}

			devices, err := c.Scan(context.Background())
			if err == nil {
				t.Fatal("expected scan error")
			}
			if devices != nil {
				t.Errorf("expected no partial results, got %v", devices)
			}
			if len(c.Devices()) != 0 {
				t.Error("device list must be cleared on failure")
			}
			if got := testutil.ToFloat64(metrics.Scans.WithLabelValues("error")); got != 1 {
				t.Errorf("expected 1 failed scan, got %v", got)
			}
		})
	}
}

func TestScanContextCancelled(t *testing.T) {
	conn := &fakePacketConn{}
	c := NewClient(WithPacketListener(&fakeListener{conn: conn}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if conn.reads != 0 {
		t.Errorf("expected no reads after cancellation, got %d", conn.reads)
	}
}
