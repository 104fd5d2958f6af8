package huidu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// ─── Sahte Cihaz (TCP) ──────────────────────────────────────────────────────────

type fakeRequest struct {
	Method  string
	Frames  []Header
	Payload []byte
	Root    *xmlNode
}

// fakeDevice, loopback üzerinde HD kontrol kartı gibi davranan test sunucusudur.
type fakeDevice struct {
	t    *testing.T
	ln   net.Listener
	guid string

	// fragment > 0 ise yanıtlar bu boyutta parçalara bölünür.
	fragment int
	// handshakeReply nil değilse ServiceAnswer yerine yazılır.
	handshakeReply []byte
	// reply, GetIFVersion dışındaki metotların yanıt XML'ini üretir.
	reply func(method string, req *xmlNode) string
	// raw true dönerse varsayılan yanıt yazılmaz.
	raw func(conn net.Conn, method string) bool

	once       sync.Once
	mu         sync.Mutex
	handshakes []HandshakeHeader
	requests   []fakeRequest
	accepted   int
	closed     int
}

func newFakeDevice(t *testing.T, guid string) *fakeDevice {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not start fake device: %v", err)
	}
	f := &fakeDevice{t: t, ln: ln, guid: guid}
	t.Cleanup(func() { ln.Close() })
	return f
}

// port, sunucuyu başlatır ve portunu döner. Ayarlar bu çağrıdan önce yapılmalıdır.
func (f *fakeDevice) port() int {
	f.once.Do(func() { go f.serve() })
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeDevice) device() Device {
	return Device{Host: "127.0.0.1", Port: f.port()}
}

func (f *fakeDevice) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.accepted++
		f.mu.Unlock()
		go f.handle(conn)
	}
}

func (f *fakeDevice) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		f.mu.Lock()
		f.closed++
		f.mu.Unlock()
	}()

	buf := make([]byte, HandshakeSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return
	}
	h, _ := DecodeHandshake(buf)
	f.mu.Lock()
	f.handshakes = append(f.handshakes, h)
	f.mu.Unlock()

	if f.handshakeReply != nil {
		conn.Write(f.handshakeReply)
	} else {
		conn.Write(EncodeHandshake(HandshakeHeader{Cmd: CmdServiceAnswer, Version: transportVersion}))
	}

	for {
		req, err := readFakeRequest(conn)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.raw != nil && f.raw(conn, req.Method) {
			continue
		}

		var resp string
		switch {
		case req.Method == string(MethodGetIFVersion):
			resp = versionReply(f.guid)
		case f.reply != nil:
			resp = f.reply(req.Method, req.Root)
		default:
			resp = okReply(f.guid, req.Method)
		}
		f.writeResponse(conn, []byte(resp))
	}
}

func readFakeRequest(conn net.Conn) (fakeRequest, error) {
	var req fakeRequest
	received := 0
	for {
		hdr := make([]byte, HeaderSize)
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return req, err
		}
		h, err := DecodeHeader(hdr)
		if err != nil {
			return req, err
		}
		body := make([]byte, int(h.TotalLength)-HeaderSize)
		if _, err := io.ReadFull(conn, body); err != nil {
			return req, err
		}
		if req.Payload == nil {
			req.Payload = make([]byte, h.PayloadLength)
		}
		copy(req.Payload[h.PayloadOffset:], body)
		received += len(body)
		req.Frames = append(req.Frames, h)
		if received >= len(req.Payload) {
			break
		}
	}

	root, err := parseResponse(req.Payload)
	if err != nil {
		return req, err
	}
	req.Root = root
	req.Method, _ = root.Child("in").Attr("method")
	return req, nil
}

func (f *fakeDevice) writeResponse(conn net.Conn, payload []byte) {
	if f.fragment <= 0 {
		frame, err := EncodeCommandFrame(CmdSdkCmdAnswer, payload)
		if err != nil {
			f.t.Errorf("encode response: %v", err)
			return
		}
		conn.Write(frame)
		return
	}
	for offset := 0; offset < len(payload); offset += f.fragment {
		end := min(offset+f.fragment, len(payload))
		chunk := payload[offset:end]
		frame := EncodeHeader(Header{
			TotalLength:   uint16(HeaderSize + len(chunk)),
			Cmd:           CmdSdkCmdAnswer,
			PayloadLength: uint32(len(payload)),
			PayloadOffset: uint32(offset),
		})
		conn.Write(append(frame, chunk...))
	}
}

func (f *fakeDevice) snapshot() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

func (f *fakeDevice) handshakeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handshakes)
}

// waitClosed, sunucunun kabul ettiği tüm bağlantıların kapanmasını bekler.
func (f *fakeDevice) waitClosed(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		done := f.accepted == f.closed
		f.mu.Unlock()
		if done {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.Errorf("connections left open: accepted %d, closed %d", f.accepted, f.closed)
}

func versionReply(guid string) string {
	if guid == "" {
		return `<?xml version="1.0" encoding="utf-8"?><sdk><out method="GetIFVersion" result="kSuccess"><version value="1000000"/></out></sdk>`
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?><sdk guid="%s"><out method="GetIFVersion" result="kSuccess"><version value="1000000"/></out></sdk>`, guid)
}

func okReply(guid, method string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?><sdk guid="%s"><out method="%s" result="kSuccess"/></sdk>`, guid, method)
}

func programListReply(guid string, programs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="utf-8"?><sdk guid="%s"><out method="GetProgram" result="kSuccess"><screen timeStamps="0">`, guid)
	for i, p := range programs {
		fmt.Fprintf(&b, `<program guid="%s" type="normal" id="%d"><playControl count="1" disabled="false"/></program>`, p, i)
	}
	b.WriteString(`</screen></out></sdk>`)
	return b.String()
}

// ─── Sahte UDP Soketi ───────────────────────────────────────────────────────────

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

type fakeDatagram struct {
	data []byte
	from net.Addr
}

// fakePacketConn, sırayla verilen datagramları döner; bitince zaman aşımı verir.
type fakePacketConn struct {
	mu      sync.Mutex
	replies []fakeDatagram
	writes  [][]byte
	targets []net.Addr
	reads   int
	closed  bool
	failTx  error
}

func (c *fakePacketConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if len(c.replies) == 0 {
		return 0, nil, timeoutError{}
	}
	d := c.replies[0]
	c.replies = c.replies[1:]
	return copy(p, d.data), d.from, nil
}

func (c *fakePacketConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTx != nil {
		return 0, c.failTx
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	c.targets = append(c.targets, addr)
	return len(p), nil
}

func (c *fakePacketConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakePacketConn) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4zero} }
func (c *fakePacketConn) SetDeadline(time.Time) error { return nil }
func (c *fakePacketConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakePacketConn) SetWriteDeadline(time.Time) error { return nil }

type fakeListener struct {
	conn  *fakePacketConn
	err   error
	calls int
}

func (l *fakeListener) ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.conn, nil
}

// searchAnswer, 25 byte'lık geçerli bir arama yanıtı üretir.
func searchAnswer(id string, version, change uint32) []byte {
	buf := make([]byte, SearchAnswerSize)
	binary.LittleEndian.PutUint32(buf[0:4], version)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(CmdSearchDeviceAnswer))
	copy(buf[6:6+DeviceIDLength], id)
	binary.LittleEndian.PutUint32(buf[21:25], change)
	return buf
}

func udpFrom(ip string) net.Addr {
	return &net.UDPAddr{IP: net.ParseIP(ip), Port: DefaultPort}
}

// ─── Ağ Kullanmayan Dialer ──────────────────────────────────────────────────────

// refusingDialer, çağrıldığında testi başarısız yapar.
type refusingDialer struct {
	t     *testing.T
	calls int
}

func (d *refusingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.calls++
	d.t.Errorf("unexpected dial to %s", address)
	return nil, errors.New("dial not allowed")
}
