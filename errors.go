package huidu

import (
	"errors"
	"fmt"
)

// Hata değerleri errors.Is ile kontrol edilebilir; fonksiyonlar bunları
// bağlam ekleyerek (%w) sarmalar.
var (
	// Çerçeve (frame) kodlama hataları
	ErrShortFrame    = errors.New("huidu: frame too short")
	ErrFrameTooLarge = errors.New("huidu: frame too large")

	// Oturum ve taşıma hataları
	ErrHandshake         = errors.New("huidu: version handshake failed")
	ErrMissingGUID       = errors.New("huidu: session guid missing in GetIFVersion response")
	ErrNoResponse        = errors.New("huidu: no response from device")
	ErrTruncatedResponse = errors.New("huidu: response ended before payload was complete")
	ErrResponseTooLarge  = errors.New("huidu: response exceeds buffer capacity")
	ErrUnexpectedCommand = errors.New("huidu: unexpected command type")

	// XML ayrıştırma hataları
	ErrMalformedResponse = errors.New("huidu: malformed XML response")

	// Çağıran kaynaklı hatalar
	ErrDeviceIndex      = errors.New("huidu: device index out of range")
	ErrProgramIndex     = errors.New("huidu: program index out of range")
	ErrCapacityExceeded = errors.New("huidu: capacity exceeded")
)

// ResultError, <out result="..."> değeri kSuccess olmayan yanıtlar için döner.
type ResultError struct {
	Method string
	Result string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("huidu: %s failed: %s", e.Method, e.Result)
}
