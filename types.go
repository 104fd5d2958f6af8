package huidu

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// ─── Protokol Sabitleri ─────────────────────────────────────────────────────────

const (
	// DefaultPort, HD kontrol kartlarının UDP arama ve TCP komut portudur.
	DefaultPort = 10001

	// DefaultBroadcastAddress, cihaz arama paketinin gönderildiği adrestir.
	DefaultBroadcastAddress = "255.255.255.255:10001"

	// DefaultTimeout, TCP bağlantı kurulumu ve yazma işlemleri için zaman aşımıdır.
	DefaultTimeout = 10 * time.Second

	// DefaultResponseTimeout, bir yanıtın ilk parçası için beklenecek süredir.
	DefaultResponseTimeout = 3 * time.Second

	// DefaultDrainTimeout, yanıtın devam parçaları arasındaki en uzun sessizliktir.
	// Bu süre boyunca veri gelmezse yanıt bitmiş kabul edilir.
	DefaultDrainTimeout = 100 * time.Millisecond

	// DefaultScanTimeout, cihaz aramasında her bir okuma denemesinin süresidir.
	// Toplam arama süresi en fazla MaxDevices × ScanTimeout olur.
	DefaultScanTimeout = 3 * time.Second

	// DefaultMaxDevices, bir taramada tutulacak en fazla cihaz sayısıdır.
	// Tarama bu sayı kadar okuma denemesi yapar.
	DefaultMaxDevices = 4

	// DefaultMaxPrograms, bir cihaz için saklanacak en fazla program sayısıdır.
	DefaultMaxPrograms = 16

	// DefaultMaxResponseSize, tek bir yanıt için tamponlanacak en fazla byte sayısıdır.
	DefaultMaxResponseSize = 1 << 20

	// MaxContentLength, tek bir SDK komut paketinde taşınabilecek en fazla XML boyutudur.
	// Daha büyük XML'ler bu boyutta parçalara bölünür.
	MaxContentLength = 8000

	// HeaderSize, SDK komut paketlerinin başlık uzunluğudur.
	// Format: [2B length][2B cmd][4B total XML length][4B XML offset]
	HeaderSize = 12

	// HandshakeSize, versiyon anlaşma paketinin uzunluğudur.
	// Format: [2B length][2B cmd][4B version]
	HandshakeSize = 8

	// ProbeSize, UDP arama paketinin uzunluğudur.
	// Format: [4B version][2B cmd]
	ProbeSize = 6

	// SearchAnswerSize, UDP arama yanıtının tam uzunluğudur.
	// Format: [4B version][2B cmd][15B device id][4B change]
	SearchAnswerSize = 25

	// DeviceIDLength, cihaz kimliğinin byte uzunluğudur.
	DeviceIDLength = 15

	// packetHeaderLength, tüm TCP paketlerinde ortak olan [2B length][2B cmd] kısmıdır.
	packetHeaderLength = 4

	// transportVersion, TCP transport protokol versiyonudur.
	transportVersion uint32 = 0x1000005

	// udpVersion, UDP arama protokol versiyonudur.
	udpVersion uint32 = 0x1000005

	// sdkVersion, GetIFVersion ile bildirilen SDK versiyonudur.
	sdkVersion uint32 = 0x1000000

	// negotiationGUID, oturum GUID'i henüz bilinmezken gönderilen yer tutucudur.
	negotiationGUID = "##GUID"
)

// ─── Komut Tipleri ──────────────────────────────────────────────────────────────

// CmdType, binary protokoldeki komut tiplerini temsil eder.
// TCP paketlerinde 3. ve 4. byte'lar, UDP paketlerinde 5. ve 6. byte'lar
// (little-endian) komut tipini taşır.
type CmdType uint16

const (
	// CmdHeartbeatAsk, TCP heartbeat isteğidir.
	CmdHeartbeatAsk CmdType = 0x005f

	// CmdHeartbeatAnswer, heartbeat isteğine cihazın verdiği yanıttır.
	// Yanıt okunurken araya girerse atlanır.
	CmdHeartbeatAnswer CmdType = 0x0060

	// CmdSearchDeviceAsk, ağda cihaz aramak için UDP broadcast olarak gönderilir.
	CmdSearchDeviceAsk CmdType = 0x1001

	// CmdSearchDeviceAnswer, cihaz arama isteğine verilen yanıttır.
	CmdSearchDeviceAnswer CmdType = 0x1002

	// CmdErrorAnswer, herhangi bir komuta hata yanıtıdır.
	// Veri bölümünde 2 byte'lık hata kodu bulunur.
	CmdErrorAnswer CmdType = 0x2000

	// CmdServiceAsk, transport protokol versiyon anlaşma isteğidir.
	CmdServiceAsk CmdType = 0x2001

	// CmdServiceAnswer, versiyon anlaşma yanıtıdır.
	CmdServiceAnswer CmdType = 0x2002

	// CmdSdkCmdAsk, XML tabanlı SDK komut isteğidir.
	CmdSdkCmdAsk CmdType = 0x2003

	// CmdSdkCmdAnswer, SDK komut yanıtıdır.
	CmdSdkCmdAnswer CmdType = 0x2004

	// Dosya transfer komutları. Bu istemci kullanmaz, tanım için tutulur.
	CmdFileStartAsk      CmdType = 0x8001
	CmdFileStartAnswer   CmdType = 0x8002
	CmdFileContentAsk    CmdType = 0x8003
	CmdFileContentAnswer CmdType = 0x8004
	CmdFileEndAsk        CmdType = 0x8005
	CmdFileEndAnswer     CmdType = 0x8006
	CmdReadFileAsk       CmdType = 0x8007
	CmdReadFileAnswer    CmdType = 0x8008
)

// String, CmdType'ın okunabilir string temsilini döner.
func (c CmdType) String() string {
	switch c {
	case CmdHeartbeatAsk:
		return "HeartbeatAsk"
	case CmdHeartbeatAnswer:
		return "HeartbeatAnswer"
	case CmdSearchDeviceAsk:
		return "SearchDeviceAsk"
	case CmdSearchDeviceAnswer:
		return "SearchDeviceAnswer"
	case CmdErrorAnswer:
		return "ErrorAnswer"
	case CmdServiceAsk:
		return "ServiceAsk"
	case CmdServiceAnswer:
		return "ServiceAnswer"
	case CmdSdkCmdAsk:
		return "SdkCmdAsk"
	case CmdSdkCmdAnswer:
		return "SdkCmdAnswer"
	case CmdFileStartAsk:
		return "FileStartAsk"
	case CmdFileStartAnswer:
		return "FileStartAnswer"
	case CmdFileContentAsk:
		return "FileContentAsk"
	case CmdFileContentAnswer:
		return "FileContentAnswer"
	case CmdFileEndAsk:
		return "FileEndAsk"
	case CmdFileEndAnswer:
		return "FileEndAnswer"
	case CmdReadFileAsk:
		return "ReadFileAsk"
	case CmdReadFileAnswer:
		return "ReadFileAnswer"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(c))
	}
}

// ─── Hata Kodları ───────────────────────────────────────────────────────────────

// ErrorCode, ErrorAnswer paketinde cihazın döndürdüğü hata kodudur.
type ErrorCode int

const (
	ErrSuccess           ErrorCode = 0  // Başarılı
	ErrWriteFinish       ErrorCode = 1  // Dosya yazma tamamlandı
	ErrProcessError      ErrorCode = 2  // İşlem akış hatası
	ErrVersionTooLow     ErrorCode = 3  // Protokol versiyonu çok düşük
	ErrDeviceOccupied    ErrorCode = 4  // Cihaz başka bir istemci tarafından kullanılıyor
	ErrFileOccupied      ErrorCode = 5  // Dosya kullanımda
	ErrReadFileExcessive ErrorCode = 6  // Çok fazla dosya okuma isteği
	ErrInvalidPacketLen  ErrorCode = 7  // Paket uzunluğu hatalı
	ErrInvalidParam      ErrorCode = 8  // Geçersiz parametre
	ErrNotSpaceToSave    ErrorCode = 9  // Yetersiz depolama alanı
	ErrCreateFileFailed  ErrorCode = 10 // Dosya oluşturma hatası
	ErrWriteFileFailed   ErrorCode = 11 // Dosya yazma hatası
	ErrReadFileFailed    ErrorCode = 12 // Dosya okuma hatası
	ErrInvalidFileData   ErrorCode = 13 // Geçersiz dosya verisi
	ErrFileContentError  ErrorCode = 14 // Dosya içeriği hatalı
	ErrOpenFileFailed    ErrorCode = 15 // Dosya açma hatası
	ErrSeekFileFailed    ErrorCode = 16 // Dosya konum hatası
	ErrRenameFailed      ErrorCode = 17 // Yeniden adlandırma hatası
	ErrFileNotFound      ErrorCode = 18 // Dosya bulunamadı
	ErrFileNotFinish     ErrorCode = 19 // Dosya alımı tamamlanmadı
	ErrXmlCmdTooLong     ErrorCode = 20 // XML komutu çok uzun
	ErrInvalidXmlIndex   ErrorCode = 21 // Geçersiz XML index değeri
	ErrParseXmlFailed    ErrorCode = 22 // XML ayrıştırma hatası
	ErrInvalidMethod     ErrorCode = 23 // Geçersiz metot adı
	ErrMemoryFailed      ErrorCode = 24 // Bellek hatası
	ErrSystemError       ErrorCode = 25 // Sistem hatası
	ErrUnsupportVideo    ErrorCode = 26 // Desteklenmeyen video
	ErrNotMediaFile      ErrorCode = 27 // Medya dosyası değil
	ErrParseVideoFailed  ErrorCode = 28 // Video ayrıştırma hatası
	ErrUnsupportFPS      ErrorCode = 29 // Desteklenmeyen kare hızı
	ErrUnsupportRes      ErrorCode = 30 // Desteklenmeyen çözünürlük
	ErrUnsupportFormat   ErrorCode = 31 // Desteklenmeyen format
	ErrUnsupportDuration ErrorCode = 32 // Desteklenmeyen süre
	ErrDownloadFailed    ErrorCode = 33 // Dosya indirme hatası
	ErrScreenNodeNull    ErrorCode = 34 // Ekran düğümü bulunamadı
	ErrNodeExist         ErrorCode = 35 // Düğüm zaten mevcut
	ErrNodeNotExist      ErrorCode = 36 // Düğüm mevcut değil
	ErrPluginNotExist    ErrorCode = 37 // Plugin mevcut değil
	ErrCheckLicense      ErrorCode = 38 // Lisans doğrulama hatası
	ErrNotFoundWifi      ErrorCode = 39 // WiFi modülü bulunamadı
	ErrTestWifiFailed    ErrorCode = 40 // WiFi testi başarısız
	ErrRunningError      ErrorCode = 41 // Çalışma hatası
	ErrUnsupportMethod   ErrorCode = 42 // Desteklenmeyen metot
	ErrInvalidGUID       ErrorCode = 43 // Geçersiz GUID
	ErrDelayRespond      ErrorCode = 44 // Gecikmeli yanıt
	ErrShortlyReturn     ErrorCode = 45 // XML dönüşümü yapılmadan dönüldü
)

// String, ErrorCode'un okunabilir açıklamasını döner.
func (e ErrorCode) String() string {
	names := map[ErrorCode]string{
		ErrSuccess:          "Başarılı",
		ErrWriteFinish:      "Dosya yazma tamamlandı",
		ErrProcessError:     "İşlem akış hatası",
		ErrVersionTooLow:    "Protokol versiyonu çok düşük",
		ErrDeviceOccupied:   "Cihaz meşgul",
		ErrFileOccupied:     "Dosya kullanımda",
		ErrInvalidPacketLen: "Paket uzunluğu hatalı",
		ErrInvalidParam:     "Geçersiz parametre",
		ErrXmlCmdTooLong:    "XML komutu çok uzun",
		ErrInvalidXmlIndex:  "Geçersiz XML index değeri",
		ErrParseXmlFailed:   "XML ayrıştırma hatası",
		ErrInvalidMethod:    "Geçersiz metot adı",
		ErrMemoryFailed:     "Bellek hatası",
		ErrSystemError:      "Sistem hatası",
		ErrScreenNodeNull:   "Ekran düğümü bulunamadı",
		ErrNodeNotExist:     "Düğüm mevcut değil",
		ErrRunningError:     "Çalışma hatası",
		ErrUnsupportMethod:  "Desteklenmeyen metot",
		ErrInvalidGUID:      "Geçersiz GUID",
	}
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("Bilinmeyen hata (%d)", int(e))
}

// Error, ErrorCode'u error interface'i olarak kullanılabilir hale getirir.
func (e ErrorCode) Error() string {
	return fmt.Sprintf("huidu error %d: %s", int(e), e.String())
}

// ─── SDK Metot Adları ───────────────────────────────────────────────────────────

// SdkMethod, <in method="..."> attribute'una yazılan metot adıdır.
type SdkMethod string

const (
	// MethodGetIFVersion, SDK versiyonunu bildirir ve oturum GUID'ini alır.
	// Her oturumda ilk gönderilen XML komutudur.
	MethodGetIFVersion SdkMethod = "GetIFVersion"

	// MethodGetProgram, cihazdaki programları listeler.
	MethodGetProgram SdkMethod = "GetProgram"

	// MethodAddProgram, program gönderir. Cihazdaki program listesini değiştirir.
	MethodAddProgram SdkMethod = "AddProgram"

	// MethodUpdateProgram, GUID'i verilen programı günceller.
	MethodUpdateProgram SdkMethod = "UpdateProgram"

	// MethodDeleteProgram, GUID'i verilen programı siler.
	MethodDeleteProgram SdkMethod = "DeleteProgram"

	// MethodGetDeviceInfo, cihaz donanım ve yazılım bilgilerini sorgular.
	MethodGetDeviceInfo SdkMethod = "GetDeviceInfo"

	// MethodOpenScreen, ekranı hemen açar.
	MethodOpenScreen SdkMethod = "OpenScreen"

	// MethodCloseScreen, ekranı hemen kapatır.
	MethodCloseScreen SdkMethod = "CloseScreen"
)

// resultSuccess, başarılı yanıtların result attribute değeridir.
const resultSuccess = "kSuccess"

// ─── Efekt Tipleri ──────────────────────────────────────────────────────────────

// EffectType, metin öğeleri için geçiş efekti tipidir.
type EffectType int

const (
	EffectImmediate       EffectType = 0  // Anında göster
	EffectLeftMove        EffectType = 1  // Sola kayma
	EffectRightMove       EffectType = 2  // Sağa kayma
	EffectUpMove          EffectType = 3  // Yukarı kayma
	EffectDownMove        EffectType = 4  // Aşağı kayma
	EffectFade            EffectType = 17 // Solma
	EffectLeftScroll      EffectType = 21 // Sürekli sola kaydırma
	EffectRightScroll     EffectType = 22 // Sürekli sağa kaydırma
	EffectUpScroll        EffectType = 23 // Sürekli yukarı kaydırma
	EffectDownScroll      EffectType = 24 // Sürekli aşağı kaydırma
	EffectRandom          EffectType = 25 // Rastgele efekt
	EffectLeftScrollLoop  EffectType = 26 // Baştan sona bağlı sürekli sola kaydırma
	EffectRightScrollLoop EffectType = 27 // Baştan sona bağlı sürekli sağa kaydırma
)

// IsContinuousScroll, efektin sürekli yatay kayan türde olup olmadığını kontrol eder.
// Bu tür efektlerde metin singleLine=true olarak işaretlenmelidir.
func (e EffectType) IsContinuousScroll() bool {
	return e == EffectLeftScroll || e == EffectRightScroll ||
		e == EffectLeftScrollLoop || e == EffectRightScrollLoop
}

// HAlign, yatay hizalama tipidir.
type HAlign string

const (
	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"
)

// VAlign, dikey hizalama tipidir.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// ─── Veri Yapıları ──────────────────────────────────────────────────────────────

// Device, UDP taramasından (veya AddDevice ile) elde edilen cihaz tanımıdır.
// Değer olarak kopyalanır; istemci içindeki liste dışarıdan değiştirilemez.
type Device struct {
	Host    string               // Cihazın IP adresi (datagram kaynağından)
	Port    int                  // TCP komut portu
	ID      [DeviceIDLength]byte // Cihaz kimliği (ham byte dizisi)
	Version uint32               // Cihazın bildirdiği protokol versiyonu
	Change  uint32               // Cihazın bildirdiği değişiklik sayacı
}

// IDString, cihaz kimliğini sondaki NUL byte'lar atılmış string olarak döner.
func (d Device) IDString() string {
	return string(bytes.TrimRight(d.ID[:], "\x00"))
}

// String, cihazı log ve CLI çıktısı için kısa biçimde döner.
func (d Device) String() string {
	return fmt.Sprintf("%s (%s:%d, v0x%08x)", d.IDString(), d.Host, d.Port, d.Version)
}

// DeviceInfo, GetDeviceInfo komutuyla alınan cihaz bilgileridir.
type DeviceInfo struct {
	CPU            string // İşlemci tipi
	Model          string // Kart modeli
	DeviceID       string // Benzersiz cihaz kimliği
	DeviceName     string // Cihaz adı
	FPGAVersion    string // FPGA versiyonu
	AppVersion     string // Firmware versiyonu
	KernelVersion  string // Kernel versiyonu
	ScreenWidth    int    // Ekran genişliği (piksel)
	ScreenHeight   int    // Ekran yüksekliği (piksel)
	ScreenRotation int    // Ekran dönme açısı
}

// Rect, bir alanın ekran üzerindeki dikdörtgenidir (piksel).
type Rect struct {
	X, Y          int
	Width, Height int
}

// TextConfig, metin öğesinin görünüm parametreleridir.
// Boş bırakılan alanlar withDefaults ile doldurulur.
type TextConfig struct {
	FontName  string     // Font adı (varsayılan: "Arial")
	FontSize  int        // Font boyutu (varsayılan: 12)
	Color     string     // #RRGGBB (varsayılan: "#ff0000")
	Bold      bool       // Kalın
	Italic    bool       // İtalik
	Underline bool       // Altı çizili
	HAlign    HAlign     // Yatay hizalama (varsayılan: center)
	VAlign    VAlign     // Dikey hizalama (varsayılan: middle)
	Effect    EffectType // Giriş efekti
	OutEffect EffectType // Çıkış efekti
	Speed     int        // Efekt hızı (varsayılan: 4)
	Duration  int        // Gösterim süresi, saniye (varsayılan: 3)
}

func (c TextConfig) withDefaults() TextConfig {
	if c.FontName == "" {
		c.FontName = "Arial"
	}
	if c.FontSize == 0 {
		c.FontSize = 12
	}
	if c.Color == "" {
		c.Color = "#ff0000"
	}
	if c.HAlign == "" {
		c.HAlign = HAlignCenter
	}
	if c.VAlign == "" {
		c.VAlign = VAlignMiddle
	}
	if c.Speed <= 0 {
		c.Speed = 4
	}
	if c.Duration <= 0 {
		c.Duration = 3
	}
	return c
}

// ─── Seçenek Yapıları ───────────────────────────────────────────────────────────

// Option, Client yapılandırma seçeneğidir (functional options).
type Option func(*options)

type options struct {
	port             int
	broadcastAddress string
	timeout          time.Duration
	responseTimeout  time.Duration
	drainTimeout     time.Duration
	scanTimeout      time.Duration
	maxDevices       int
	maxPrograms      int
	maxResponseSize  int
	logger           *slog.Logger
	metrics          *Metrics
	dialer           Dialer
	listener         PacketListener
	textConfig       TextConfig
	textArea         Rect
}

func defaultOptions() options {
	return options{
		port:             DefaultPort,
		broadcastAddress: DefaultBroadcastAddress,
		timeout:          DefaultTimeout,
		responseTimeout:  DefaultResponseTimeout,
		drainTimeout:     DefaultDrainTimeout,
		scanTimeout:      DefaultScanTimeout,
		maxDevices:       DefaultMaxDevices,
		maxPrograms:      DefaultMaxPrograms,
		maxResponseSize:  DefaultMaxResponseSize,
		logger:           slog.New(slog.DiscardHandler),
		dialer:           &net.Dialer{},
		listener:         &net.ListenConfig{},
		textArea:         Rect{Width: 64, Height: 32},
	}
}

// WithPort, taranan cihazlar için kullanılacak TCP komut portunu ayarlar.
func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

// WithBroadcastAddress, arama paketinin gönderileceği host:port adresini ayarlar.
// Alt ağa özel broadcast adresi (ör: "192.168.1.255:10001") verilebilir.
func WithBroadcastAddress(addr string) Option {
	return func(o *options) {
		o.broadcastAddress = addr
	}
}

// WithTimeout, TCP bağlantı kurulumu ve yazma zaman aşımını ayarlar.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithResponseTimeout, yanıtın ilk parçası ve handshake için bekleme süresini ayarlar.
func WithResponseTimeout(d time.Duration) Option {
	return func(o *options) {
		o.responseTimeout = d
	}
}

// WithDrainTimeout, yanıt parçaları arasındaki en uzun sessizliği ayarlar.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		o.drainTimeout = d
	}
}

// WithScanTimeout, taramadaki her okuma denemesinin süresini ayarlar.
func WithScanTimeout(d time.Duration) Option {
	return func(o *options) {
		o.scanTimeout = d
	}
}

// WithMaxDevices, cihaz listesinin kapasitesini ve tarama deneme sayısını ayarlar.
func WithMaxDevices(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDevices = n
		}
	}
}

// WithMaxPrograms, cihaz başına saklanacak program sayısı sınırını ayarlar.
func WithMaxPrograms(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPrograms = n
		}
	}
}

// WithMaxResponseSize, tek bir yanıt için tamponlanacak byte sınırını ayarlar.
func WithMaxResponseSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResponseSize = n
		}
	}
}

// WithLogger, tanı mesajları için slog logger'ı ayarlar.
// Varsayılan olarak loglama devre dışıdır.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics, Prometheus metriklerini istemciye bağlar.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDialer, TCP bağlantıları için kullanılacak dialer'ı ayarlar.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithPacketListener, UDP taraması için kullanılacak soket açıcıyı ayarlar.
func WithPacketListener(l PacketListener) Option {
	return func(o *options) {
		if l != nil {
			o.listener = l
		}
	}
}

// WithTextConfig, SetText için varsayılan metin görünümünü ayarlar.
func WithTextConfig(c TextConfig) Option {
	return func(o *options) {
		o.textConfig = c
	}
}

// WithTextArea, SetText'in oluşturduğu alanın dikdörtgenini ayarlar.
// Varsayılan 64x32'dir.
func WithTextArea(r Rect) Option {
	return func(o *options) {
		o.textArea = r
	}
}
