package render

import (
	"bytes"
	"etms/src/lib"
	"etms/src/types"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	canvasW = 1400
	canvasH = 990
)

// ImageRenderer draws the certificate with raster primitives onto a PNG
// canvas. Unlike the PDF renderer it tolerates individual image failures:
// a logo that cannot be fetched or decoded is skipped with a warning.
type ImageRenderer struct {
	fetch    func(string) ([]byte, error)
	fontData []byte
}

func NewImageRenderer() *ImageRenderer {
	r := &ImageRenderer{fetch: lib.FetchAsset}
	if fontPath := os.Getenv("CERT_FONT_PATH"); fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			log.Printf("[render] Could not read font %s: %s\n", fontPath, err.Error())
		} else {
			r.fontData = b
		}
	}
	return r
}

func (r *ImageRenderer) Name() string      { return "image" }
func (r *ImageRenderer) Extension() string { return "png" }
func (r *ImageRenderer) MimeType() string  { return "image/png" }

func (r *ImageRenderer) face(size float64) font.Face {
	if r.fontData != nil {
		f, err := truetype.Parse(r.fontData)
		if err == nil {
			return truetype.NewFace(f, &truetype.Options{Size: size})
		}
		log.Printf("[render] Could not parse font: %s\n", err.Error())
	}
	return basicfont.Face7x13
}

func (r *ImageRenderer) Render(data *Data) ([]byte, error) {
	dc := gg.NewContext(canvasW, canvasH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// frame
	dc.SetRGB255(29, 53, 87)
	dc.SetLineWidth(6)
	dc.DrawRectangle(36, 36, canvasW-72, canvasH-72)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(50, 50, canvasW-100, canvasH-100)
	dc.Stroke()

	r.placeLogo(dc, data.OrganizerLogoURL, 160, 130)
	r.placeLogo(dc, data.SponsorLogoURL, canvasW-160, 130)

	cx := float64(canvasW) / 2
	dc.SetRGB255(29, 53, 87)
	dc.SetFontFace(r.face(84))
	dc.DrawStringAnchored("CERTIFICATE", cx, 170, 0.5, 0.5)
	dc.SetFontFace(r.face(36))
	dc.DrawStringAnchored(typeTitle(data.CertificateType), cx, 235, 0.5, 0.5)

	dc.SetRGB255(60, 60, 60)
	dc.SetFontFace(r.face(26))
	dc.DrawStringAnchored("This certificate is proudly presented to", cx, 320, 0.5, 0.5)

	dc.SetRGB255(29, 53, 87)
	dc.SetFontFace(r.face(64))
	dc.DrawStringAnchored(data.ParticipantName, cx, 395, 0.5, 0.5)
	nameW, _ := dc.MeasureString(data.ParticipantName)
	dc.SetLineWidth(3)
	dc.DrawLine(cx-nameW/2-20, 435, cx+nameW/2+20, 435)
	dc.Stroke()

	dc.SetRGB255(60, 60, 60)
	dc.SetFontFace(r.face(26))
	dc.DrawStringAnchored(actionPhrase(data.CertificateType), cx, 490, 0.5, 0.5)
	dc.SetRGB255(29, 53, 87)
	dc.SetFontFace(r.face(44))
	dc.DrawStringAnchored(data.EventName, cx, 545, 0.5, 0.5)

	detail := data.EventDate
	if data.EventLocation != "" {
		detail = fmt.Sprintf("%s  |  %s", detail, data.EventLocation)
	}
	dc.SetRGB255(60, 60, 60)
	dc.SetFontFace(r.face(24))
	dc.DrawStringAnchored(detail, cx, 605, 0.5, 0.5)
	y := 650.0
	if data.EventTheme != "" {
		dc.DrawStringAnchored(fmt.Sprintf("Theme: %s", data.EventTheme), cx, y, 0.5, 0.5)
		y += 45
	}
	if data.OrganizerName != "" {
		dc.DrawStringAnchored(fmt.Sprintf("Organized by %s", data.OrganizerName), cx, y, 0.5, 0.5)
	}

	r.drawSignatures(dc, data)

	dc.SetRGB255(120, 120, 120)
	dc.SetFontFace(r.face(18))
	dc.DrawStringAnchored(fmt.Sprintf("Certificate No: %s", data.CertificateNumber), 220, canvasH-80, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Issued: %s", data.IssuedDate.Format("January 2, 2006")), canvasW-240, canvasH-80, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, &types.RenderError{Stage: "image", Err: err}
	}
	return buf.Bytes(), nil
}

func (r *ImageRenderer) placeLogo(dc *gg.Context, ref string, x, y int) {
	if ref == "" {
		return
	}
	b, err := r.fetch(ref)
	if err != nil {
		log.Printf("[render] Could not add logo %s: %s\n", ref, err.Error())
		return
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		log.Printf("[render] Could not decode logo %s: %s\n", ref, err.Error())
		return
	}
	dc.DrawImageAnchored(img, x, y, 0.5, 0.5)
}

func (r *ImageRenderer) drawSignatures(dc *gg.Context, data *Data) {
	type sig struct{ name, title, imageURL string }
	var sigs []sig
	if data.Signature1Name != "" {
		sigs = append(sigs, sig{data.Signature1Name, data.Signature1Title, data.Signature1ImageURL})
	}
	if data.Signature2Name != "" {
		sigs = append(sigs, sig{data.Signature2Name, data.Signature2Title, data.Signature2ImageURL})
	}
	if len(sigs) == 0 {
		return
	}
	y := 810.0
	slotW := float64(canvasW) / float64(len(sigs)+1)
	for i, s := range sigs {
		cx := slotW * float64(i+1)
		r.placeLogo(dc, s.imageURL, int(cx), int(y)-55)
		dc.SetRGB255(60, 60, 60)
		dc.SetLineWidth(2)
		dc.DrawLine(cx-140, y, cx+140, y)
		dc.Stroke()
		dc.SetRGB255(29, 53, 87)
		dc.SetFontFace(r.face(24))
		dc.DrawStringAnchored(s.name, cx, y+30, 0.5, 0.5)
		if s.title != "" {
			dc.SetRGB255(60, 60, 60)
			dc.SetFontFace(r.face(18))
			dc.DrawStringAnchored(s.title, cx, y+60, 0.5, 0.5)
		}
	}
}
