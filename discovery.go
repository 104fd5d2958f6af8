package huidu

import (
	"context"
	"fmt"
	"net"
	"time"
)

// PacketListener, UDP soketi açan bileşendir. *net.ListenConfig bu arayüzü sağlar.
// Go'nun IPv4 UDP soketleri SO_BROADCAST açık olarak oluşturulur.
type PacketListener interface {
	ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error)
}

// Scan, yerel ağa UDP broadcast arama paketi gönderir ve gelen yanıtlardan
// cihaz listesini oluşturur.
//
// Tarama deneme sayısıyla sınırlıdır: MaxDevices kadar okuma yapılır ve her
// okuma ScanTimeout kadar bekler. En kötü durumda süre
// MaxDevices × ScanTimeout olur. Geçersiz datagramlar sessizce atılır ama bir
// deneme hakkı tüketir.
//
// Başarılı tarama istemcinin cihaz listesini tamamen değiştirir ve program
// kayıtlarını sıfırlar. Soket açma veya gönderme hatasında liste boşaltılır
// ve hata döner; kısmi sonuç dönmez.
func (c *Client) Scan(ctx context.Context) (devices []Device, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		c.opts.metrics.observeScan(len(devices), err)
	}()

	devices, err = c.scan(ctx)
	if err != nil {
		c.devices = nil
		c.programs.Reset()
		c.log.Warn("cihaz taraması başarısız", "error", err)
		return nil, err
	}

	c.devices = devices
	c.programs.Reset()
	c.log.Info("cihaz taraması tamamlandı", "count", len(devices))
	return cloneDevices(devices), nil
}

func (c *Client) scan(ctx context.Context) ([]Device, error) {
	raddr, err := net.ResolveUDPAddr("udp4", c.opts.broadcastAddress)
	if err != nil {
		return nil, fmt.Errorf("broadcast adresi çözümlenemedi: %w", err)
	}

	pc, err := c.opts.listener.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("UDP soketi açılamadı: %w", err)
	}
	defer pc.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = pc.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := pc.WriteTo(EncodeProbe(udpVersion), raddr); err != nil {
		return nil, fmt.Errorf("arama paketi gönderilemedi: %w", err)
	}
	c.log.Debug("arama paketi gönderildi", "addr", raddr.String(), "attempts", c.opts.maxDevices)

	devices := make([]Device, 0, c.opts.maxDevices)
	buf := make([]byte, 512)
	for attempt := 0; attempt < c.opts.maxDevices; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = pc.SetReadDeadline(time.Now().Add(c.opts.scanTimeout))

		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !isIdle(err) {
				c.log.Warn("arama yanıtı okunamadı", "attempt", attempt, "error", err)
			}
			continue
		}

		dev, ok := decodeSearchAnswer(buf[:n], from)
		if !ok {
			c.opts.metrics.observeDiscard()
			c.log.Debug("geçersiz arama yanıtı atlandı", "from", from, "bytes", n)
			continue
		}
		dev.Port = c.opts.port
		devices = append(devices, dev)
		c.log.Debug("cihaz bulundu", "device", dev.String())
	}
	return devices, nil
}

func cloneDevices(devices []Device) []Device {
	out := make([]Device, len(devices))
	copy(out, devices)
	return out
}
