package render

import (
	"etms/src/types"
	"fmt"
	"log"
	"strings"
	"time"
)

// Data carries everything a certificate is rendered from. It is built from
// the certificate's own config snapshot, never from the live event.
type Data struct {
	CertificateNumber string
	CertificateType   types.CertificateType
	IssuedDate        time.Time
	ParticipantName   string
	EventName         string
	EventDate         string
	EventLocation     string
	EventTheme        string
	OrganizerName     string
	OrganizerLogoURL  string
	SponsorName       string
	SponsorLogoURL    string
	Signature1Name     string
	Signature1Title    string
	Signature1ImageURL string
	Signature2Name     string
	Signature2Title    string
	Signature2ImageURL string
}

type Result struct {
	Content  []byte
	MimeType string
	Filename string
}

type Renderer interface {
	Name() string
	Extension() string
	MimeType() string
	Render(data *Data) ([]byte, error)
}

// Binary outputs smaller than this are treated as corrupt and the chain
// moves on to the next renderer.
const minPlausibleSize = 1000

type Chain struct {
	renderers []Renderer
}

func NewChain(renderers ...Renderer) *Chain {
	return &Chain{renderers: renderers}
}

func DefaultChain() *Chain {
	return NewChain(NewPDFRenderer(), NewImageRenderer())
}

// Render walks the renderer list and falls back to an HTML document when
// every binary renderer fails. It never returns an error: the terminal HTML
// stage has no failure modes.
func (c *Chain) Render(data *Data) *Result {
	for _, r := range c.renderers {
		out, err := r.Render(data)
		if err != nil {
			log.Printf("[render] %s renderer failed for %s: %s\n", r.Name(), data.CertificateNumber, err.Error())
			continue
		}
		if len(out) < minPlausibleSize {
			log.Printf("[render] %s renderer produced %d bytes for %s, treating as failed\n", r.Name(), len(out), data.CertificateNumber)
			continue
		}
		return &Result{
			Content:  out,
			MimeType: r.MimeType(),
			Filename: artifactFilename(data, r.Extension()),
		}
	}
	log.Printf("[render] All renderers failed for %s. Falling back to HTML\n", data.CertificateNumber)
	return &Result{
		Content:  renderHTML(data),
		MimeType: "text/html",
		Filename: artifactFilename(data, "html"),
	}
}

// HTMLDocument renders the terminal HTML tier directly, for previews.
func HTMLDocument(data *Data) []byte {
	return renderHTML(data)
}

func artifactFilename(data *Data, ext string) string {
	name := strings.ReplaceAll(data.ParticipantName, " ", "_")
	event := strings.ReplaceAll(data.EventName, " ", "_")
	return fmt.Sprintf("Certificate_%s_%s.%s", name, event, ext)
}

func typeTitle(t types.CertificateType) string {
	if t == "" {
		t = types.CERT_PARTICIPATION
	}
	return "OF " + strings.ToUpper(string(t))
}

func actionPhrase(t types.CertificateType) string {
	switch t {
	case types.CERT_COMPLETION:
		return "has successfully completed"
	case types.CERT_ACHIEVEMENT:
		return "has achieved excellence in"
	default:
		return "has participated in"
	}
}
