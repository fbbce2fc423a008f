package render

import (
	"bytes"
	"errors"
	"etms/src/types"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	name   string
	ext    string
	mime   string
	out    []byte
	err    error
	called int
}

func (s *stubRenderer) Name() string      { return s.name }
func (s *stubRenderer) Extension() string { return s.ext }
func (s *stubRenderer) MimeType() string  { return s.mime }
func (s *stubRenderer) Render(data *Data) ([]byte, error) {
	s.called++
	return s.out, s.err
}

func testData() *Data {
	return &Data{
		CertificateNumber: "CERT-001-0001-20250324-0001",
		CertificateType:   types.CERT_PARTICIPATION,
		IssuedDate:        time.Date(2025, 3, 24, 10, 0, 0, 0, time.UTC),
		ParticipantName:   "Jane Doe",
		EventName:         "Tech Summit",
		EventDate:         "March 24, 2025",
		EventLocation:     "Manila",
	}
}

func plausible(n int) []byte {
	return make([]byte, n)
}

func TestChainUsesFirstHealthyRenderer(t *testing.T) {
	first := &stubRenderer{name: "first", ext: "pdf", mime: "application/pdf", out: plausible(4096)}
	second := &stubRenderer{name: "second", ext: "png", mime: "image/png", out: plausible(4096)}
	chain := NewChain(first, second)

	res := chain.Render(testData())

	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, "Certificate_Jane_Doe_Tech_Summit.pdf", res.Filename)
	assert.Equal(t, 1, first.called)
	assert.Equal(t, 0, second.called)
}

func TestChainFallsBackOnRendererError(t *testing.T) {
	first := &stubRenderer{name: "first", ext: "pdf", mime: "application/pdf", err: errors.New("engine unavailable")}
	second := &stubRenderer{name: "second", ext: "png", mime: "image/png", out: plausible(4096)}
	chain := NewChain(first, second)

	res := chain.Render(testData())

	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, "Certificate_Jane_Doe_Tech_Summit.png", res.Filename)
	assert.Equal(t, 1, first.called)
	assert.Equal(t, 1, second.called)
}

func TestChainRejectsImplausiblySmallOutput(t *testing.T) {
	// a well-formed header with no content is still a broken artifact
	first := &stubRenderer{name: "first", ext: "pdf", mime: "application/pdf", out: []byte("%PDF-1.4\n%%EOF")}
	second := &stubRenderer{name: "second", ext: "png", mime: "image/png", out: plausible(4096)}
	chain := NewChain(first, second)

	res := chain.Render(testData())

	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, 1, second.called)
}

func TestChainTerminalHTMLFallbackNeverFails(t *testing.T) {
	first := &stubRenderer{name: "first", ext: "pdf", mime: "application/pdf", err: errors.New("down")}
	second := &stubRenderer{name: "second", ext: "png", mime: "image/png", err: errors.New("down too")}
	chain := NewChain(first, second)

	res := chain.Render(testData())

	assert.NotNil(t, res)
	assert.Equal(t, "text/html", res.MimeType)
	assert.Equal(t, "Certificate_Jane_Doe_Tech_Summit.html", res.Filename)
	body := string(res.Content)
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "Tech Summit")
	assert.Contains(t, body, "CERT-001-0001-20250324-0001")
	assert.Contains(t, body, "OF PARTICIPATION")
}

func TestActionPhrasePerCertificateType(t *testing.T) {
	assert.Equal(t, "has participated in", actionPhrase(types.CERT_PARTICIPATION))
	assert.Equal(t, "has successfully completed", actionPhrase(types.CERT_COMPLETION))
	assert.Equal(t, "has achieved excellence in", actionPhrase(types.CERT_ACHIEVEMENT))
	assert.Equal(t, "has participated in", actionPhrase(""))
}

func TestImageRendererProducesPlausiblePNG(t *testing.T) {
	r := NewImageRenderer()
	r.fetch = func(ref string) ([]byte, error) {
		return nil, errors.New("offline")
	}
	data := testData()
	data.OrganizerLogoURL = "https://example.com/logo.png"

	out, err := r.Render(data)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(out), minPlausibleSize)
	assert.True(t, strings.HasPrefix(string(out[1:4]), "PNG"))
}

func TestPDFRendererFailsWhenAssetUnavailable(t *testing.T) {
	r := NewPDFRenderer()
	r.fetch = func(ref string) ([]byte, error) {
		return nil, errors.New("offline")
	}
	data := testData()
	data.OrganizerLogoURL = "https://example.com/logo.png"

	_, err := r.Render(data)

	var re *types.RenderError
	assert.ErrorAs(t, err, &re)
}

func signaturePNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 60, 30))
	for i := range img.Pix {
		img.Pix[i] = 0x20
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPDFRendererDrawsSignatureImages(t *testing.T) {
	var fetched []string
	r := NewPDFRenderer()
	r.fetch = func(ref string) ([]byte, error) {
		fetched = append(fetched, ref)
		return signaturePNG(t), nil
	}
	data := testData()
	data.Signature1Name = "Alex Cruz"
	data.Signature1Title = "Program Chair"
	data.Signature1ImageURL = "https://example.com/sig1.png"
	data.Signature2Name = "Sam Reyes"
	data.Signature2ImageURL = "https://example.com/sig2.png"

	out, err := r.Render(data)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.Equal(t, []string{"https://example.com/sig1.png", "https://example.com/sig2.png"}, fetched)
}

func TestPDFRendererToleratesMissingSignatureImage(t *testing.T) {
	r := NewPDFRenderer()
	r.fetch = func(ref string) ([]byte, error) {
		return nil, errors.New("offline")
	}
	data := testData()
	data.Signature1Name = "Alex Cruz"
	data.Signature1ImageURL = "https://example.com/sig1.png"

	out, err := r.Render(data)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(out), minPlausibleSize)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestImageRendererDrawsSignatureImages(t *testing.T) {
	var fetched []string
	r := NewImageRenderer()
	r.fetch = func(ref string) ([]byte, error) {
		fetched = append(fetched, ref)
		return signaturePNG(t), nil
	}
	data := testData()
	data.Signature1Name = "Alex Cruz"
	data.Signature1ImageURL = "https://example.com/sig1.png"

	out, err := r.Render(data)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(out), minPlausibleSize)
	assert.Equal(t, []string{"https://example.com/sig1.png"}, fetched)
}

func TestPDFRendererOutputIsPDF(t *testing.T) {
	r := NewPDFRenderer()
	data := testData()
	data.Signature1Name = "Alex Cruz"
	data.Signature1Title = "Program Chair"

	out, err := r.Render(data)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(out), minPlausibleSize)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
