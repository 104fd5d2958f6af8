package huidu

import (
	"context"
	"fmt"
)

// ─── Genel Komutlar ─────────────────────────────────────────────────────────────

// Command, iç XML olmadan adı verilen SDK metodunu gönderir ve ham yanıtı
// döner. Yanıt boş olabilir; result kontrolü yapılmaz.
//
//	raw, err := client.Command(ctx, 0, huidu.MethodGetDeviceInfo)
func (c *Client) Command(ctx context.Context, device int, method SdkMethod) ([]byte, error) {
	return c.CommandXML(ctx, device, method, "")
}

// CommandXML, Command ile aynıdır; <in> elemanının içeriği çağıran tarafından verilir.
func (c *Client) CommandXML(ctx context.Context, device int, method SdkMethod, inner string) ([]byte, error) {
	dev, err := c.device(device)
	if err != nil {
		return nil, err
	}
	return c.exchange(ctx, dev, method, inner)
}

// ─── Cihaz Bilgisi ──────────────────────────────────────────────────────────────

// DeviceInfo, cihazın donanım ve yazılım bilgilerini sorgular.
//
//	info, err := client.DeviceInfo(ctx, 0)
//	fmt.Printf("Model: %s, Ekran: %dx%d\n", info.Model, info.ScreenWidth, info.ScreenHeight)
func (c *Client) DeviceInfo(ctx context.Context, device int) (*DeviceInfo, error) {
	resp, err := c.Command(ctx, device, MethodGetDeviceInfo)
	if err != nil {
		return nil, err
	}
	info, err := parseDeviceInfo(resp)
	if err != nil {
		return nil, fmt.Errorf("cihaz bilgisi ayrıştırılamadı: %w", err)
	}
	return info, nil
}

// ─── Ekran Kontrolü ─────────────────────────────────────────────────────────────

// OpenScreen, LED ekranı hemen açar.
func (c *Client) OpenScreen(ctx context.Context, device int) error {
	return c.simple(ctx, device, MethodOpenScreen)
}

// CloseScreen, LED ekranı hemen kapatır (karartır).
// Ekran fiziksel olarak kapatılmaz, sadece LED'ler söndürülür.
func (c *Client) CloseScreen(ctx context.Context, device int) error {
	return c.simple(ctx, device, MethodCloseScreen)
}

// DeleteProgram, idx sıradaki programı cihazdan siler.
// Program kaydı değişmez; silme sonrası FetchPrograms tekrar çağrılmalıdır.
func (c *Client) DeleteProgram(ctx context.Context, device, program int) error {
	dev, guid, err := c.target(device, program)
	if err != nil {
		return err
	}
	inner := xmlElement("program", "guid", guid, "type", programTypeNormal)
	resp, err := c.exchange(ctx, dev, MethodDeleteProgram, inner)
	if err != nil {
		return err
	}
	return checkResult(resp, MethodDeleteProgram)
}

func (c *Client) simple(ctx context.Context, device int, method SdkMethod) error {
	resp, err := c.Command(ctx, device, method)
	if err != nil {
		return err
	}
	return checkResult(resp, method)
}
