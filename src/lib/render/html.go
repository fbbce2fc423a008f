package render

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Certificate - {{.ParticipantName}}</title>
<style>
  body { font-family: Georgia, serif; background: #f4f4f4; margin: 0; padding: 40px; }
  .certificate { background: #fff; border: 10px double #1d3557; max-width: 900px; margin: 0 auto; padding: 60px; text-align: center; }
  h1 { color: #1d3557; font-size: 52px; letter-spacing: 6px; margin: 0; }
  h2 { color: #1d3557; font-size: 22px; letter-spacing: 4px; margin-top: 6px; }
  .presented { color: #555; margin-top: 40px; }
  .name { color: #1d3557; font-size: 40px; border-bottom: 2px solid #1d3557; display: inline-block; padding: 0 30px 6px; margin-top: 12px; }
  .event { color: #1d3557; font-size: 28px; margin-top: 12px; }
  .detail { color: #555; margin-top: 16px; }
  .signatures { display: flex; justify-content: space-around; margin-top: 70px; }
  .signature { border-top: 1px solid #555; padding-top: 8px; min-width: 200px; }
  .signature .who { color: #1d3557; font-weight: bold; }
  .footer { display: flex; justify-content: space-between; color: #999; font-size: 12px; margin-top: 60px; }
</style>
</head>
<body>
<div class="certificate">
  <h1>CERTIFICATE</h1>
  <h2>{{.TypeTitle}}</h2>
  <p class="presented">This certificate is proudly presented to</p>
  <div class="name">{{.ParticipantName}}</div>
  <p class="presented">{{.ActionPhrase}}</p>
  <div class="event">{{.EventName}}</div>
  <p class="detail">{{.EventDate}}{{if .EventLocation}} | {{.EventLocation}}{{end}}</p>
  {{if .EventTheme}}<p class="detail"><em>Theme: {{.EventTheme}}</em></p>{{end}}
  {{if .OrganizerName}}<p class="detail">Organized by {{.OrganizerName}}</p>{{end}}
  <div class="signatures">
    {{if .Signature1Name}}<div class="signature"><div class="who">{{.Signature1Name}}</div><div>{{.Signature1Title}}</div></div>{{end}}
    {{if .Signature2Name}}<div class="signature"><div class="who">{{.Signature2Name}}</div><div>{{.Signature2Title}}</div></div>{{end}}
  </div>
  <div class="footer">
    <span>Certificate No: {{.CertificateNumber}}</span>
    <span>Issued: {{.IssuedDateText}}</span>
  </div>
</div>
</body>
</html>`))

type htmlData struct {
	*Data
	TypeTitle      string
	ActionPhrase   string
	IssuedDateText string
}

// renderHTML is the terminal fallback. It always returns a document; a
// template error (which would be a programming bug) degrades to a minimal
// page rather than propagating.
func renderHTML(data *Data) []byte {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, &htmlData{
		Data:           data,
		TypeTitle:      typeTitle(data.CertificateType),
		ActionPhrase:   actionPhrase(data.CertificateType),
		IssuedDateText: data.IssuedDate.Format("January 2, 2006"),
	})
	if err != nil {
		return []byte(fmt.Sprintf("<html><body><h1>Certificate</h1><p>%s - %s</p><p>%s</p></body></html>",
			template.HTMLEscapeString(data.ParticipantName),
			template.HTMLEscapeString(data.EventName),
			template.HTMLEscapeString(data.CertificateNumber)))
	}
	return buf.Bytes()
}
