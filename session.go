package huidu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// Dialer, TCP bağlantısı açan bileşendir. *net.Dialer bu arayüzü sağlar.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Session, bir cihazla tek bir TCP bağlantısı üzerindeki oturumdur.
//
// Her komut kendi oturumunu açar ve kapatır; bağlantı tekrar kullanılmaz.
// Oturum GUID'i yalnızca bu bağlantıya aittir, istemci genelinde saklanmaz.
//
// Oturum yaşam döngüsü:
//  1. TCP bağlantısı (Dialer)
//  2. Transport versiyon anlaşması (0x2001 → 0x2002)
//  3. GetIFVersion ile GUID alınması
//  4. Komut gönderimi ve yanıtın birleştirilmesi
//  5. Close
type Session struct {
	conn   net.Conn
	device Device
	guid   string
	opts   *options
	log    *slog.Logger
	stop   func() bool
}

// openSession, cihaza bağlanır, versiyon anlaşmasını yapar ve GUID alır.
// Hata durumunda bağlantı kapatılmış olarak döner.
func openSession(ctx context.Context, dev Device, opts *options) (*Session, error) {
	addr := net.JoinHostPort(dev.Host, strconv.Itoa(dev.Port))

	dialCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	conn, err := opts.dialer.DialContext(dialCtx, "tcp", addr)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("TCP bağlantı hatası (%s): %w", addr, err)
	}

	s := &Session{
		conn:   conn,
		device: dev,
		opts:   opts,
		log:    opts.logger.With("device", addr),
	}
	// Context iptal edilirse bekleyen okuma/yazma hemen sonlanır.
	s.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})

	if err := s.handshake(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("versiyon anlaşma hatası: %w", err)
	}
	if err := s.negotiate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("SDK versiyon anlaşma hatası: %w", err)
	}
	return s, nil
}

// GUID, GetIFVersion ile alınan oturum kimliğini döner.
func (s *Session) GUID() string {
	return s.guid
}

// Close, bağlantıyı kapatır. Birden fazla çağrılabilir.
func (s *Session) Close() error {
	if s.stop != nil {
		s.stop()
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// ─── Handshake ──────────────────────────────────────────────────────────────────

// handshake, 8 byte'lık transport versiyon anlaşmasını gerçekleştirir.
// Cihaz tam olarak 8 byte'lık bir ServiceAnswer döndürmelidir.
func (s *Session) handshake(ctx context.Context) error {
	pkt := EncodeHandshake(HandshakeHeader{Cmd: CmdServiceAsk, Version: transportVersion})
	if err := s.write(pkt); err != nil {
		return fmt.Errorf("versiyon paketi gönderilemedi: %w", err)
	}

	_ = s.conn.SetReadDeadline(s.deadline(ctx, s.opts.responseTimeout))

	prefix := make([]byte, packetHeaderLength)
	if _, err := io.ReadFull(s.conn, prefix); err != nil {
		return s.readError(ctx, fmt.Errorf("%w: versiyon yanıtı okunamadı: %v", ErrHandshake, err))
	}
	length, cmd, _ := parsePacketPrefix(prefix)

	switch {
	case cmd == CmdErrorAnswer && length >= packetHeaderLength+2 && length <= HandshakeSize:
		pkt := make([]byte, length)
		copy(pkt, prefix)
		if _, err := io.ReadFull(s.conn, pkt[packetHeaderLength:]); err != nil {
			return fmt.Errorf("%w: hata yanıtı okunamadı: %v", ErrHandshake, err)
		}
		code, _ := parseErrorCode(pkt)
		return fmt.Errorf("cihaz hata döndü: %w", code)

	case cmd != CmdServiceAnswer:
		return fmt.Errorf("%w: beklenmeyen yanıt tipi: %s", ErrHandshake, cmd)

	case length != HandshakeSize:
		return fmt.Errorf("%w: yanıt uzunluğu %d, beklenen %d", ErrHandshake, length, HandshakeSize)
	}

	pkt = make([]byte, HandshakeSize)
	copy(pkt, prefix)
	if _, err := io.ReadFull(s.conn, pkt[packetHeaderLength:]); err != nil {
		return s.readError(ctx, fmt.Errorf("%w: versiyon yanıtı eksik: %v", ErrHandshake, err))
	}
	h, err := DecodeHandshake(pkt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	s.log.Debug("transport versiyonu anlaşıldı", "version", fmt.Sprintf("0x%08x", h.Version))
	return nil
}

// negotiate, GetIFVersion komutunu gönderir ve yanıttaki kök guid
// attribute'unu oturum GUID'i olarak saklar. GUID bulunamazsa oturum
// kullanılamaz.
func (s *Session) negotiate(ctx context.Context) error {
	resp, err := s.roundTrip(ctx, MethodGetIFVersion, buildVersionXML())
	if err != nil {
		return err
	}

	root, err := parseResponse(resp)
	if err != nil {
		return err
	}
	guid, ok := root.Attr("guid")
	if !ok || guid == "" || guid == negotiationGUID {
		return ErrMissingGUID
	}

	s.guid = guid
	s.log.Debug("oturum GUID'i alındı", "guid", guid)
	return nil
}

// ─── Komut Gönderme/Alma ────────────────────────────────────────────────────────

// Call, oturum GUID'i ile bir SDK zarfı oluşturur, gönderir ve ham yanıt
// XML'ini döner. inner boş olabilir.
func (s *Session) Call(ctx context.Context, method SdkMethod, inner string) ([]byte, error) {
	if s.guid == "" {
		return nil, ErrMissingGUID
	}
	return s.roundTrip(ctx, method, buildSdkXML(s.guid, method, inner))
}

// roundTrip, XML'i komut paketleri halinde gönderir ve yanıtı birleştirir.
func (s *Session) roundTrip(ctx context.Context, method SdkMethod, payload []byte) (resp []byte, err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.observeExchange(string(method), start, err)
	}()

	frames := splitCommandFrames(CmdSdkCmdAsk, payload)
	for _, frame := range frames {
		if err := s.write(frame); err != nil {
			return nil, s.readError(ctx, fmt.Errorf("SDK komutu gönderilemedi: %w", err))
		}
	}
	s.opts.metrics.addSent(len(payload))
	s.log.Debug("SDK komutu gönderildi", "method", method, "bytes", len(payload), "frames", len(frames))

	resp, err = s.receive(ctx)
	if err != nil {
		return nil, err
	}
	s.opts.metrics.addReceived(len(resp))
	s.log.Debug("SDK yanıtı alındı", "method", method, "bytes", len(resp))
	return resp, nil
}

// receive, yanıtı sınırlı bir okuma döngüsüyle toplar.
//
// İlk okuma responseTimeout kadar, sonrakiler drainTimeout kadar bekler.
// Döngü şu durumlardan birinde biter:
//   - payload tamamlandı (başarılı)
//   - veri geldikten sonra boş okuma → ErrTruncatedResponse
//   - ilk okumada veri yok → ErrNoResponse
//   - tampon sınırı aşıldı → ErrResponseTooLarge
//   - ErrorAnswer → ErrorCode, bilinmeyen paket → ErrUnexpectedCommand
func (s *Session) receive(ctx context.Context) ([]byte, error) {
	asm := newAssembler(s.opts.maxResponseSize)
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wait := s.opts.drainTimeout
		if !asm.started() {
			wait = s.opts.responseTimeout
		}
		_ = s.conn.SetReadDeadline(s.deadline(ctx, wait))

		n, err := s.conn.Read(buf)
		if n > 0 {
			done, ferr := asm.feed(buf[:n])
			if ferr != nil {
				return nil, ferr
			}
			if asm.skipped > 0 {
				s.log.Debug("heartbeat yanıtı atlandı", "count", asm.skipped)
				asm.skipped = 0
			}
			if done {
				return asm.payload, nil
			}
		}
		if err == nil {
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isIdle(err) {
			if !asm.started() {
				return nil, ErrNoResponse
			}
			s.log.Warn("yanıt tamamlanmadan kesildi", "received", asm.received, "expected", asm.total)
			return nil, fmt.Errorf("%w: %d/%d byte", ErrTruncatedResponse, asm.received, asm.total)
		}
		return nil, fmt.Errorf("yanıt okunamadı: %w", err)
	}
}

// write, paketi yazma zaman aşımı ile gönderir.
func (s *Session) write(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.timeout))
	_, err := s.conn.Write(data)
	return err
}

// deadline, verilen bekleme süresini context'in bitiş zamanıyla sınırlar.
func (s *Session) deadline(ctx context.Context, wait time.Duration) time.Time {
	d := time.Now().Add(wait)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// readError, context iptalini G/Ç hatasına tercih eder.
func (s *Session) readError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// isIdle, okumanın veri gelmeden bittiğini (zaman aşımı veya EOF) bildirir.
func isIdle(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ─── Yanıt Birleştirme ──────────────────────────────────────────────────────────

// assembler, TCP akışından tam paketleri ayırır ve SdkCmdAnswer
// parçalarını PayloadOffset konumlarına yerleştirir.
type assembler struct {
	pending  []byte // henüz tam paket oluşturmayan byte'lar
	payload  []byte
	total    int
	received int
	limit    int
	seen     bool
	skipped  int
}

func newAssembler(limit int) *assembler {
	return &assembler{limit: limit}
}

// started, en az bir byte alınıp alınmadığını bildirir.
func (a *assembler) started() bool {
	return a.seen
}

// feed, okunan veriyi ekler; payload tamamlandığında true döner.
func (a *assembler) feed(data []byte) (bool, error) {
	a.seen = true
	a.pending = append(a.pending, data...)
	if len(a.pending) > a.limit {
		return false, fmt.Errorf("%w: %d byte tamponlandı", ErrResponseTooLarge, len(a.pending))
	}

	for {
		length, cmd, ok := parsePacketPrefix(a.pending)
		if !ok {
			return false, nil
		}
		if int(length) < packetHeaderLength {
			return false, fmt.Errorf("%w: paket uzunluğu %d", ErrShortFrame, length)
		}
		if len(a.pending) < int(length) {
			return false, nil
		}
		frame := a.pending[:length]
		a.pending = a.pending[length:]

		switch cmd {
		case CmdSdkCmdAnswer:
			done, err := a.place(frame)
			if err != nil || done {
				return done, err
			}

		case CmdErrorAnswer:
			code, ok := parseErrorCode(frame)
			if !ok {
				return false, fmt.Errorf("%w: hata yanıtı çözümlenemedi", ErrShortFrame)
			}
			return false, fmt.Errorf("SDK hata yanıtı: %w", code)

		case CmdHeartbeatAnswer:
			a.skipped++

		default:
			return false, fmt.Errorf("%w: %s", ErrUnexpectedCommand, cmd)
		}
	}
}

// place, bir SdkCmdAnswer parçasını payload tamponuna kopyalar.
func (a *assembler) place(frame []byte) (bool, error) {
	h, err := DecodeHeader(frame)
	if err != nil {
		return false, err
	}
	if a.payload == nil {
		if int(h.PayloadLength) > a.limit {
			return false, fmt.Errorf("%w: bildirilen boyut %d", ErrResponseTooLarge, h.PayloadLength)
		}
		a.total = int(h.PayloadLength)
		a.payload = make([]byte, a.total)
	}

	chunk := frame[HeaderSize:]
	end := int(h.PayloadOffset) + len(chunk)
	if end > a.total {
		return false, fmt.Errorf("%w: parça %d..%d, toplam %d", ErrFrameTooLarge, h.PayloadOffset, end, a.total)
	}
	copy(a.payload[h.PayloadOffset:], chunk)
	a.received += len(chunk)

	return a.received >= a.total, nil
}
