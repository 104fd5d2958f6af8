package huidu

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
)

// ─── Paket Kodlama ──────────────────────────────────────────────────────────────
//
// Bu dosya, binary protokolün saf byte <-> yapı dönüşümlerini içerir; hiçbir
// I/O yapmaz. Tüm alanlar little-endian ve sabit genişliktedir.
//
// SDK komut paketi (12 byte başlık + XML):
//   [2B] toplam paket uzunluğu (başlık dahil)
//   [2B] komut tipi (SdkCmdAsk / SdkCmdAnswer)
//   [4B] toplam XML uzunluğu (tüm parçalar)
//   [4B] bu parçanın XML içindeki başlangıç konumu
//
// Versiyon anlaşma paketi (8 byte, veri yok):
//   [2B] uzunluk = 8
//   [2B] komut tipi (ServiceAsk / ServiceAnswer)
//   [4B] versiyon
//
// UDP arama isteği (6 byte):   [4B versiyon][2B SearchDeviceAsk]
// UDP arama yanıtı (25 byte):  [4B versiyon][2B SearchDeviceAnswer][15B cihaz ID][4B change]

// Header, SDK komut paketinin 12 byte'lık başlığıdır.
type Header struct {
	TotalLength   uint16  // Başlık + bu paketteki veri
	Cmd           CmdType // Komut tipi
	PayloadLength uint32  // Birleştirilmiş XML'in toplam uzunluğu
	PayloadOffset uint32  // Bu paketteki verinin XML içindeki konumu
}

// HandshakeHeader, 8 byte'lık versiyon anlaşma paketidir.
type HandshakeHeader struct {
	Length  uint16
	Cmd     CmdType
	Version uint32
}

// EncodeHeader, başlığı 12 byte'lık little-endian diziye yazar.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.TotalLength)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Cmd))
	binary.LittleEndian.PutUint32(buf[4:8], h.PayloadLength)
	binary.LittleEndian.PutUint32(buf[8:12], h.PayloadOffset)
	return buf
}

// DecodeHeader, 12 byte'lık SDK komut başlığını ayrıştırır.
// HeaderSize'dan kısa tamponlar ErrShortFrame ile reddedilir.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrShortFrame, HeaderSize, len(data))
	}
	return Header{
		TotalLength:   binary.LittleEndian.Uint16(data[0:2]),
		Cmd:           CmdType(binary.LittleEndian.Uint16(data[2:4])),
		PayloadLength: binary.LittleEndian.Uint32(data[4:8]),
		PayloadOffset: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// EncodeHandshake, 8 byte'lık versiyon anlaşma paketini oluşturur.
// Length alanı her zaman HandshakeSize olarak yazılır.
func EncodeHandshake(h HandshakeHeader) []byte {
	buf := make([]byte, HandshakeSize)
	binary.LittleEndian.PutUint16(buf[0:2], HandshakeSize)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Cmd))
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	return buf
}

// DecodeHandshake, versiyon anlaşma paketini ayrıştırır.
// Yalnızca ilk 8 byte okunur; bu pakette payload alanları yoktur.
func DecodeHandshake(data []byte) (HandshakeHeader, error) {
	if len(data) < HandshakeSize {
		return HandshakeHeader{}, fmt.Errorf("%w: handshake needs %d bytes, got %d", ErrShortFrame, HandshakeSize, len(data))
	}
	return HandshakeHeader{
		Length:  binary.LittleEndian.Uint16(data[0:2]),
		Cmd:     CmdType(binary.LittleEndian.Uint16(data[2:4])),
		Version: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// EncodeCommandFrame, payload'ı tek bir pakete yerleştirir.
// TotalLength = HeaderSize + len(payload), PayloadOffset = 0 olur.
// 16 bitlik uzunluk alanına sığmayan payload ErrFrameTooLarge döner.
func EncodeCommandFrame(cmd CmdType, payload []byte) ([]byte, error) {
	total := HeaderSize + len(payload)
	if total > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, total)
	}
	frame := EncodeHeader(Header{
		TotalLength:   uint16(total),
		Cmd:           cmd,
		PayloadLength: uint32(len(payload)),
	})
	return append(frame, payload...), nil
}

// splitCommandFrames, XML verisini MaxContentLength boyutunda parçalara böler.
// Her parça kendi başlığını taşır; PayloadLength tüm XML'in boyutu,
// PayloadOffset parçanın XML içindeki konumudur.
//
// Örnek: 20000 byte'lık bir XML 3 parçaya bölünür:
//
//	Parça 1: offset=0,     boyut=8000
//	Parça 2: offset=8000,  boyut=8000
//	Parça 3: offset=16000, boyut=4000
func splitCommandFrames(cmd CmdType, payload []byte) [][]byte {
	if len(payload) <= MaxContentLength {
		// MaxContentLength uint16'ya sığdığı için hata oluşmaz.
		frame, _ := EncodeCommandFrame(cmd, payload)
		return [][]byte{frame}
	}

	var frames [][]byte
	for offset := 0; offset < len(payload); offset += MaxContentLength {
		end := min(offset+MaxContentLength, len(payload))
		chunk := payload[offset:end]

		frame := EncodeHeader(Header{
			TotalLength:   uint16(HeaderSize + len(chunk)),
			Cmd:           cmd,
			PayloadLength: uint32(len(payload)),
			PayloadOffset: uint32(offset),
		})
		frames = append(frames, append(frame, chunk...))
	}
	return frames
}

// parsePacketPrefix, tüm TCP paketlerinde ortak olan uzunluk ve komut alanlarını okur.
func parsePacketPrefix(data []byte) (length uint16, cmd CmdType, ok bool) {
	if len(data) < packetHeaderLength {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint16(data[0:2]), CmdType(binary.LittleEndian.Uint16(data[2:4])), true
}

// parseErrorCode, ErrorAnswer paketinden hata kodunu çıkarır.
// Paket en az 6 byte olmalıdır (4B başlık + 2B hata kodu).
func parseErrorCode(data []byte) (ErrorCode, bool) {
	if len(data) < packetHeaderLength+2 {
		return 0, false
	}
	return ErrorCode(binary.LittleEndian.Uint16(data[4:6])), true
}

// EncodeProbe, 6 byte'lık UDP cihaz arama paketini oluşturur.
func EncodeProbe(version uint32) []byte {
	buf := make([]byte, ProbeSize)
	binary.LittleEndian.PutUint32(buf[0:4], version)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(CmdSearchDeviceAsk))
	return buf
}

// decodeSearchAnswer, UDP arama yanıtından Device çıkarır.
// Yalnızca tam SearchAnswerSize uzunluğundaki ve komut tipi SearchDeviceAnswer
// olan datagramlar kabul edilir. Adres, datagramın kaynağından alınır.
func decodeSearchAnswer(data []byte, from net.Addr) (Device, bool) {
	if len(data) != SearchAnswerSize {
		return Device{}, false
	}
	if CmdType(binary.LittleEndian.Uint16(data[4:6])) != CmdSearchDeviceAnswer {
		return Device{}, false
	}

	dev := Device{
		Host:    hostOf(from),
		Version: binary.LittleEndian.Uint32(data[0:4]),
		Change:  binary.LittleEndian.Uint32(data[21:25]),
	}
	copy(dev.ID[:], data[6:6+DeviceIDLength])
	return dev, true
}

// hostOf, datagram kaynağının IP kısmını döner.
func hostOf(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP.String()
	case nil:
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
