package huidu

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ─── XML Oluşturma ──────────────────────────────────────────────────────────────
//
// SDK XML formatı:
//
// İstek:
//   <sdk guid="GUID-DEĞER">
//     <in method="MetotAdı">
//       ... alt elemanlar ...
//     </in>
//   </sdk>
//
// Yanıt:
//   <sdk guid="GUID-DEĞER">
//     <out method="MetotAdı" result="kSuccess">
//       ... sonuç verileri ...
//     </out>
//   </sdk>

// buildSdkXML, verilen GUID, metot adı ve iç XML içeriğinden istek zarfı oluşturur.
// innerXML boş bırakılabilir.
func buildSdkXML(guid string, method SdkMethod, innerXML string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, `<sdk guid="%s">`, xmlEscape(guid))
	buf.WriteString("\r\n  ")
	fmt.Fprintf(&buf, `<in method="%s">`, xmlEscape(string(method)))
	if innerXML != "" {
		buf.WriteString("\r\n    ")
		buf.WriteString(innerXML)
		buf.WriteString("\r\n  ")
	}
	buf.WriteString(`</in>`)
	buf.WriteString("\r\n")
	buf.WriteString(`</sdk>`)
	return buf.Bytes()
}

// buildVersionXML, oturumun ilk SDK komutu olan GetIFVersion zarfını oluşturur.
// GUID henüz bilinmediği için yer tutucu gönderilir.
//
//	<sdk guid="##GUID"><in method="GetIFVersion">
//	  <version value="1000000"/>
//	</in></sdk>
func buildVersionXML() []byte {
	inner := xmlElement("version", "value", fmt.Sprintf("%x", sdkVersion))
	return buildSdkXML(negotiationGUID, MethodGetIFVersion, inner)
}

// xmlElement, attribute'ları key=value çiftleri olarak alan boş eleman oluşturur.
//
//	xmlElement("playControl", "count", "1", "disabled", "false")
//	// <playControl count="1" disabled="false"/>
func xmlElement(tag string, attrs ...string) string {
	var buf bytes.Buffer
	writeOpenTag(&buf, tag, attrs)
	buf.WriteString("/>")
	return buf.String()
}

// xmlElementWithContent, metin içeriği olan bir eleman oluşturur.
// İçerik escape edilir.
func xmlElementWithContent(tag, content string, attrs ...string) string {
	var buf bytes.Buffer
	writeOpenTag(&buf, tag, attrs)
	buf.WriteString(">")
	buf.WriteString(xmlEscape(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">")
	return buf.String()
}

// xmlElementWithChildren, alt elemanları olan bir eleman oluşturur.
// Alt eleman yoksa kendiliğinden kapanan etiket yazılır.
func xmlElementWithChildren(tag string, attrs []string, children ...string) string {
	var buf bytes.Buffer
	writeOpenTag(&buf, tag, attrs)
	if len(children) == 0 {
		buf.WriteString("/>")
		return buf.String()
	}
	buf.WriteString(">")
	for _, child := range children {
		buf.WriteString(child)
	}
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">")
	return buf.String()
}

func writeOpenTag(buf *bytes.Buffer, tag string, attrs []string) {
	buf.WriteString("<")
	buf.WriteString(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(buf, ` %s="%s"`, attrs[i], xmlEscape(attrs[i+1]))
	}
}

// xmlEscape, XML özel karakterlerini escape eder.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// boolStr, bool değerini SDK'nın beklediği küçük harfli string'e dönüştürür.
func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ─── XML Ayrıştırma ─────────────────────────────────────────────────────────────

// xmlNode, yanıt XML'inin belge sırasını koruyan basit ağaç temsilidir.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

// Name, elemanın yerel adını döner.
func (n *xmlNode) Name() string {
	return n.XMLName.Local
}

// Attr, adı verilen attribute'un değerini döner.
func (n *xmlNode) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrInt, attribute'u tamsayı olarak döner; yoksa veya sayı değilse 0.
func (n *xmlNode) AttrInt(name string) int {
	v, _ := n.Attr(name)
	i, _ := strconv.Atoi(strings.TrimSpace(v))
	return i
}

// Child, adı verilen ilk alt elemanı döner; yoksa nil.
func (n *xmlNode) Child(name string) *xmlNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// ChildrenNamed, adı verilen tüm alt elemanları belge sırasıyla döner.
func (n *xmlNode) ChildrenNamed(name string) []*xmlNode {
	if n == nil {
		return nil
	}
	var out []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// parseResponse, ham yanıtı ayrıştırır ve <sdk> kök elemanını döner.
func parseResponse(data []byte) (*xmlNode, error) {
	clean := cleanXML(data)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	dec := xml.NewDecoder(strings.NewReader(clean))
	// Bazı firmware'ler encoding="GB2312" bildirir; içerik pratikte ASCII'dir.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}

	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if root.Name() != "sdk" {
		return nil, fmt.Errorf("%w: root element <%s>", ErrMalformedResponse, root.Name())
	}
	return &root, nil
}

// responseOut, <out> elemanını döner ve result attribute'unu kontrol eder.
// result bulunmayan yanıtlar başarılı sayılır.
func responseOut(root *xmlNode, method SdkMethod) (*xmlNode, error) {
	out := root.Child("out")
	if out == nil {
		return nil, fmt.Errorf("%w: <out> missing", ErrMalformedResponse)
	}
	if result, ok := out.Attr("result"); ok && result != resultSuccess {
		return nil, &ResultError{Method: string(method), Result: result}
	}
	return out, nil
}

// parseProgramList, GetProgram yanıtından program GUID'lerini belge
// sırasıyla çıkarır: sdk → out → screen → program*.
// guid attribute'u olmayan ilk programda veya limit dolduğunda durur.
func parseProgramList(data []byte, limit int) ([]string, error) {
	root, err := parseResponse(data)
	if err != nil {
		return nil, err
	}
	out, err := responseOut(root, MethodGetProgram)
	if err != nil {
		return nil, err
	}
	screen := out.Child("screen")
	if screen == nil {
		return nil, fmt.Errorf("%w: <screen> missing", ErrMalformedResponse)
	}

	guids := make([]string, 0, limit)
	for _, prog := range screen.ChildrenNamed("program") {
		if len(guids) == limit {
			break
		}
		guid, ok := prog.Attr("guid")
		if !ok || guid == "" {
			break
		}
		guids = append(guids, guid)
	}
	return guids, nil
}

// parseDeviceInfo, GetDeviceInfo yanıtından DeviceInfo çıkarır.
//
//	<out method="GetDeviceInfo" result="kSuccess">
//	  <device cpu="..." model="..." id="..." name="..."/>
//	  <version fpga="..." app="..." kernel="..."/>
//	  <screen width="64" height="32" rotation="0"/>
//	</out>
func parseDeviceInfo(data []byte) (*DeviceInfo, error) {
	root, err := parseResponse(data)
	if err != nil {
		return nil, err
	}
	out, err := responseOut(root, MethodGetDeviceInfo)
	if err != nil {
		return nil, err
	}

	info := &DeviceInfo{}
	if dev := out.Child("device"); dev != nil {
		info.CPU, _ = dev.Attr("cpu")
		info.Model, _ = dev.Attr("model")
		info.DeviceID, _ = dev.Attr("id")
		info.DeviceName, _ = dev.Attr("name")
	}
	if ver := out.Child("version"); ver != nil {
		info.FPGAVersion, _ = ver.Attr("fpga")
		info.AppVersion, _ = ver.Attr("app")
		info.KernelVersion, _ = ver.Attr("kernel")
	}
	if scr := out.Child("screen"); scr != nil {
		info.ScreenWidth = scr.AttrInt("width")
		info.ScreenHeight = scr.AttrInt("height")
		info.ScreenRotation = scr.AttrInt("rotation")
	}
	return info, nil
}

// checkResult, yanıt ayrıştırılabiliyorsa result değerini kontrol eder.
// Boş veya ayrıştırılamayan yanıtlar kabul edilir; bazı firmware'ler
// kontrol komutlarına gövde döndürmez.
func checkResult(data []byte, method SdkMethod) error {
	root, err := parseResponse(data)
	if err != nil {
		return nil
	}
	if out := root.Child("out"); out != nil {
		if result, ok := out.Attr("result"); ok && result != resultSuccess {
			return &ResultError{Method: string(method), Result: result}
		}
	}
	return nil
}

// cleanXML, yanıttaki UTF-8 BOM'u ve sondaki NUL byte'ları temizler.
func cleanXML(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.TrimRight(data, "\x00")
	return strings.TrimSpace(string(data))
}
