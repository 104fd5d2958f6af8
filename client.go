package huidu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Client, HD kontrol kartlarını bulan ve onlara komut gönderen istemcidir.
//
// Cihaz listesi ve program kayıtları her Client örneğine aittir; birden fazla
// istemci birbirini etkilemeden aynı anda kullanılabilir. Oturum GUID'i ise
// her komutun kendi TCP oturumunda alınır ve saklanmaz.
//
// Kullanım:
//
//	client := huidu.NewClient(huidu.WithLogger(slog.Default()))
//	devices, err := client.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	guids, err := client.FetchPrograms(ctx, 0)
//	err = client.SetText(ctx, 0, 1, true, "merhaba")
type Client struct {
	opts options
	log  *slog.Logger

	// mu, cihaz listesini korur. Scan boyunca tutulur.
	mu       sync.Mutex
	devices  []Device
	programs *ProgramRegistry
}

// NewClient, verilen seçeneklerle yeni bir istemci oluşturur.
// Ağ işlemi yapılmaz; cihazlar Scan veya AddDevice ile eklenir.
func NewClient(options ...Option) *Client {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	return &Client{
		opts:     opts,
		log:      opts.logger.With("component", "huidu"),
		programs: NewProgramRegistry(opts.maxPrograms),
	}
}

// AddDevice, broadcast'in ulaşmadığı ağlar için cihazı adresiyle ekler ve
// cihazın sırasını döner. Liste doluysa ErrCapacityExceeded döner.
func (c *Client) AddDevice(host string, port int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.devices) >= c.opts.maxDevices {
		return -1, fmt.Errorf("%w: %d devices", ErrCapacityExceeded, c.opts.maxDevices)
	}
	if port == 0 {
		port = c.opts.port
	}
	c.devices = append(c.devices, Device{Host: host, Port: port})
	c.log.Info("cihaz eklendi", "host", host, "port", port)
	return len(c.devices) - 1, nil
}

// Devices, son taramada bulunan cihazların kopyasını döner.
func (c *Client) Devices() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneDevices(c.devices)
}

// Programs, cihaz için son alınan program GUID listesini döner.
func (c *Client) Programs(device int) []string {
	return c.programs.List(device)
}

// FetchPrograms, cihazdaki programları GetProgram ile listeler ve cihazın
// program kaydını yeni liste ile değiştirir. MaxPrograms'tan fazla program
// varsa ilk MaxPrograms tanesi alınır.
func (c *Client) FetchPrograms(ctx context.Context, device int) ([]string, error) {
	dev, err := c.device(device)
	if err != nil {
		return nil, err
	}

	resp, err := c.exchange(ctx, dev, MethodGetProgram, "")
	if err != nil {
		return nil, err
	}
	guids, err := parseProgramList(resp, c.opts.maxPrograms)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MethodGetProgram, err)
	}
	if err := c.programs.Replace(device, guids); err != nil {
		return nil, err
	}

	c.log.Info("program listesi alındı", "device", device, "count", len(guids))
	return guids, nil
}

// SetPlayControl, idx sıradaki programın oynatmasını açar veya kapatır.
// Cihaz ve program sırası ağ işleminden önce kontrol edilir.
func (c *Client) SetPlayControl(ctx context.Context, device, program int, enabled bool) error {
	dev, guid, err := c.target(device, program)
	if err != nil {
		return err
	}

	resp, err := c.exchange(ctx, dev, MethodUpdateProgram, buildPlayControlXML(guid, enabled))
	if err != nil {
		return err
	}
	return checkResult(resp, MethodUpdateProgram)
}

// SetText, programı verilen metni gösteren tek bir alanla yeniden tanımlar.
// Görünüm WithTextConfig ile verilen varsayılanları kullanır.
func (c *Client) SetText(ctx context.Context, device, program int, enabled bool, text string) error {
	return c.SetTextWithConfig(ctx, device, program, enabled, text, c.opts.textConfig)
}

// SetTextWithConfig, SetText ile aynıdır; metin görünümü çağrı başına verilir.
func (c *Client) SetTextWithConfig(ctx context.Context, device, program int, enabled bool, text string, cfg TextConfig) error {
	dev, guid, err := c.target(device, program)
	if err != nil {
		return err
	}

	inner := buildTextProgramXML(guid, enabled, text, cfg, c.opts.textArea)
	resp, err := c.exchange(ctx, dev, MethodAddProgram, inner)
	if err != nil {
		return err
	}
	return checkResult(resp, MethodAddProgram)
}

// ─── Dahili Yardımcılar ─────────────────────────────────────────────────────────

// exchange, tek bir komut için oturum açar, komutu gönderir ve oturumu kapatır.
func (c *Client) exchange(ctx context.Context, dev Device, method SdkMethod, inner string) ([]byte, error) {
	s, err := openSession(ctx, dev, &c.opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	resp, err := s.Call(ctx, method, inner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}

// device, idx sıradaki cihazı döner.
func (c *Client) device(idx int) (Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.devices) {
		return Device{}, fmt.Errorf("%w: %d, known %d", ErrDeviceIndex, idx, len(c.devices))
	}
	return c.devices[idx], nil
}

// target, cihazı ve program GUID'ini birlikte çözer.
func (c *Client) target(device, program int) (Device, string, error) {
	dev, err := c.device(device)
	if err != nil {
		return Device{}, "", err
	}
	guid, err := c.programs.Lookup(device, program)
	if err != nil {
		return Device{}, "", err
	}
	return dev, guid, nil
}
