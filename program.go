package huidu

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ─── Program Şablonları ─────────────────────────────────────────────────────────
//
// Oynatma kontrolü (UpdateProgram):
//
//	<screen>
//	  <program guid="P" type="normal">
//	    <playControl count="1" disabled="false"/>
//	  </program>
//	</screen>
//
// Metin güncelleme (AddProgram):
//
//	<screen>
//	  <program guid="P" type="normal">
//	    <playControl count="1" disabled="false"/>
//	    <area guid="A" alpha="255">
//	      <rectangle x="0" y="0" width="64" height="32"/>
//	      <resources>
//	        <text guid="T" singleLine="false">
//	          <style align="center" valign="middle"/>
//	          <string>metin</string>
//	          <font name="Arial" size="12" color="#ff0000" .../>
//	          <effect in="0" inSpeed="4" out="0" outSpeed="4" duration="30"/>
//	        </text>
//	      </resources>
//	    </area>
//	  </program>
//	</screen>

// programTypeNormal, programların varsayılan tipidir.
const programTypeNormal = "normal"

// buildPlayControlXML, bir programın oynatmasını açan veya kapatan iç XML'i oluşturur.
func buildPlayControlXML(programGUID string, enabled bool) string {
	program := xmlElementWithChildren("program",
		[]string{"guid", programGUID, "type", programTypeNormal},
		playControlElement(enabled),
	)
	return xmlElementWithChildren("screen", nil, program)
}

// buildTextProgramXML, programı tek bir metin alanıyla yeniden tanımlayan iç XML'i
// oluşturur. Alan ve metin öğesi her çağrıda yeni uuid alır.
func buildTextProgramXML(programGUID string, enabled bool, text string, cfg TextConfig, rect Rect) string {
	cfg = cfg.withDefaults()

	area := xmlElementWithChildren("area",
		[]string{"guid", uuid.New().String(), "alpha", "255"},
		xmlElement("rectangle",
			"x", strconv.Itoa(rect.X),
			"y", strconv.Itoa(rect.Y),
			"width", strconv.Itoa(rect.Width),
			"height", strconv.Itoa(rect.Height),
		),
		xmlElementWithChildren("resources", nil, buildTextItemXML(uuid.New().String(), text, cfg)),
	)

	program := xmlElementWithChildren("program",
		[]string{"guid", programGUID, "type", programTypeNormal},
		playControlElement(enabled),
		area,
	)
	return xmlElementWithChildren("screen", nil, program)
}

func playControlElement(enabled bool) string {
	return xmlElement("playControl", "count", "1", "disabled", boolStr(!enabled))
}

// buildTextItemXML, metin öğesini oluşturur.
func buildTextItemXML(guid, text string, c TextConfig) string {
	// Sürekli yatay kaydırma efektlerinde singleLine=true olmalı
	singleLine := c.Effect.IsContinuousScroll()

	styleXML := xmlElement("style",
		"align", string(c.HAlign),
		"valign", string(c.VAlign),
	)
	stringXML := xmlElementWithContent("string", text)
	fontXML := xmlElement("font",
		"name", c.FontName,
		"size", strconv.Itoa(c.FontSize),
		"color", c.Color,
		"bold", boolStr(c.Bold),
		"italic", boolStr(c.Italic),
		"underline", boolStr(c.Underline),
	)
	effectXML := buildEffectXML(c.Effect, c.OutEffect, c.Speed, c.Duration)

	return xmlElementWithChildren("text",
		[]string{"guid", guid, "singleLine", boolStr(singleLine)},
		styleXML, stringXML, fontXML, effectXML,
	)
}

// buildEffectXML, giriş/çıkış efektini oluşturur.
// duration saniye cinsinden verilir, cihaza 0.1 saniye biriminde yazılır.
func buildEffectXML(inEffect, outEffect EffectType, speed, duration int) string {
	return xmlElement("effect",
		"in", strconv.Itoa(int(inEffect)),
		"inSpeed", strconv.Itoa(speed),
		"out", strconv.Itoa(int(outEffect)),
		"outSpeed", strconv.Itoa(speed),
		"duration", strconv.Itoa(duration*10),
	)
}

// ─── Renk Yardımcıları ──────────────────────────────────────────────────────────

const (
	ColorRed    = "#ff0000"
	ColorGreen  = "#00ff00"
	ColorBlue   = "#0000ff"
	ColorYellow = "#ffff00"
	ColorWhite  = "#ffffff"
)

// RGB, 0-255 arası R, G, B değerlerinden #RRGGBB formatında renk string'i oluşturur.
//
//	color := huidu.RGB(255, 128, 0) // "#ff8000"
func RGB(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", clamp(r), clamp(g), clamp(b))
}

func clamp(v int) int {
	return min(max(v, 0), 255)
}
