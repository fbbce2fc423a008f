package render

import (
	"bytes"
	"etms/src/lib"
	"etms/src/types"
	"fmt"
	"log"
	"net/http"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer draws the certificate as a landscape A4 PDF. A logo that
// cannot be fetched fails the whole render and the chain falls back to the
// raster renderer; signature images are decorative and are skipped with a
// warning instead.
type PDFRenderer struct {
	fetch func(string) ([]byte, error)
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{fetch: lib.FetchAsset}
}

func (r *PDFRenderer) Name() string      { return "pdf" }
func (r *PDFRenderer) Extension() string { return "pdf" }
func (r *PDFRenderer) MimeType() string  { return "application/pdf" }

func (r *PDFRenderer) Render(data *Data) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	// double border frame
	pdf.SetDrawColor(29, 53, 87)
	pdf.SetLineWidth(1.2)
	pdf.Rect(8, 8, pageW-16, pageH-16, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(11, 11, pageW-22, pageH-22, "D")
	drawCornerAccents(pdf, pageW, pageH)

	if data.OrganizerLogoURL != "" {
		if err := r.placeImage(pdf, data.OrganizerLogoURL, "organizer_logo", 20, 16, 32); err != nil {
			return nil, err
		}
	}
	if data.SponsorLogoURL != "" {
		if err := r.placeImage(pdf, data.SponsorLogoURL, "sponsor_logo", pageW-52, 16, 32); err != nil {
			return nil, err
		}
	}

	centered := func(y float64, size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(0, y)
		pdf.CellFormat(pageW, size*0.5, tr(text), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(29, 53, 87)
	centered(34, 34, "B", "CERTIFICATE")
	centered(48, 16, "", typeTitle(data.CertificateType))

	pdf.SetTextColor(60, 60, 60)
	centered(66, 12, "", "This certificate is proudly presented to")

	pdf.SetTextColor(29, 53, 87)
	centered(80, 28, "B", data.ParticipantName)
	nameW := pdf.GetStringWidth(data.ParticipantName) + 10
	pdf.SetLineWidth(0.6)
	pdf.Line((pageW-nameW)/2, 95, (pageW+nameW)/2, 95)

	pdf.SetTextColor(60, 60, 60)
	centered(102, 12, "", actionPhrase(data.CertificateType))
	pdf.SetTextColor(29, 53, 87)
	centered(112, 18, "B", data.EventName)

	detail := data.EventDate
	if data.EventLocation != "" {
		detail = fmt.Sprintf("%s  |  %s", detail, data.EventLocation)
	}
	pdf.SetTextColor(60, 60, 60)
	centered(126, 11, "", detail)
	if data.EventTheme != "" {
		centered(134, 11, "I", fmt.Sprintf("Theme: %s", data.EventTheme))
	}
	if data.OrganizerName != "" {
		centered(142, 10, "", fmt.Sprintf("Organized by %s", data.OrganizerName))
	}

	r.drawSignatures(pdf, tr, pageW, data)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(16, pageH-18)
	pdf.CellFormat(0, 4, tr(fmt.Sprintf("Certificate No: %s", data.CertificateNumber)), "", 0, "L", false, 0, "")
	pdf.SetXY(16, pageH-18)
	pdf.CellFormat(pageW-32, 4, tr(fmt.Sprintf("Issued: %s", data.IssuedDate.Format("January 2, 2006"))), "", 0, "R", false, 0, "")

	if pdf.Err() {
		return nil, &types.RenderError{Stage: "pdf", Err: pdf.Error()}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &types.RenderError{Stage: "pdf", Err: err}
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) placeImage(pdf *fpdf.Fpdf, ref, name string, x, y, w float64) error {
	b, err := r.fetch(ref)
	if err != nil {
		return &types.RenderError{Stage: "pdf", Err: fmt.Errorf("asset %s: %w", ref, err)}
	}
	imageType := ""
	switch http.DetectContentType(b) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return &types.RenderError{Stage: "pdf", Err: fmt.Errorf("unsupported image type for %s", ref)}
	}
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(b))
	pdf.ImageOptions(name, x, y, w, 0, false, opts, 0, "")
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return &types.RenderError{Stage: "pdf", Err: err}
	}
	return nil
}

func drawCornerAccents(pdf *fpdf.Fpdf, pageW, pageH float64) {
	pdf.SetLineWidth(1.0)
	size := 12.0
	inset := 14.0
	corners := [][2]float64{
		{inset, inset},
		{pageW - inset, inset},
		{inset, pageH - inset},
		{pageW - inset, pageH - inset},
	}
	for i, c := range corners {
		dx, dy := size, size
		if i%2 == 1 {
			dx = -size
		}
		if i >= 2 {
			dy = -size
		}
		pdf.Line(c[0], c[1], c[0]+dx, c[1])
		pdf.Line(c[0], c[1], c[0], c[1]+dy)
	}
}

func (r *PDFRenderer) drawSignatures(pdf *fpdf.Fpdf, tr func(string) string, pageW float64, data *Data) {
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
	y := 165.0
	slotW := pageW / float64(len(sigs)+1)
	for i, s := range sigs {
		cx := slotW * float64(i+1)
		if s.imageURL != "" {
			if err := r.placeImage(pdf, s.imageURL, fmt.Sprintf("signature_%d", i+1), cx-17, y-20, 34); err != nil {
				log.Printf("[render] Could not add signature image %s: %s\n", s.imageURL, err.Error())
			}
		}
		pdf.SetLineWidth(0.4)
		pdf.SetDrawColor(60, 60, 60)
		pdf.Line(cx-30, y, cx+30, y)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(29, 53, 87)
		pdf.SetXY(cx-40, y+2)
		pdf.CellFormat(80, 5, tr(s.name), "", 0, "C", false, 0, "")
		if s.title != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(60, 60, 60)
			pdf.SetXY(cx-40, y+8)
			pdf.CellFormat(80, 4, tr(s.title), "", 0, "C", false, 0, "")
		}
	}
}
