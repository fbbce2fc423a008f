package common

import (
	"etms/src/models"
	"fmt"
)

func buildTicketEmailBody(event *models.Event, participant *models.Participant) string {
	logoBlock := ""
	if event.LogoFilename != "" {
		logoBlock = `<img src="cid:event_logo" alt="Event logo" style="max-height:80px;margin-bottom:16px;" />`
	}
	mapsBlock := ""
	if event.GoogleMapsURL != "" {
		mapsBlock = fmt.Sprintf(`<p><a href="%s">View location on Google Maps</a></p>`, event.GoogleMapsURL)
	}
	instructionsBlock := ""
	if event.Instructions != "" {
		instructionsBlock = fmt.Sprintf(`<h3>Instructions</h3><p>%s</p>`, event.Instructions)
	}
	return fmt.Sprintf(`
	<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
		%s
		<h2 style="color:#1d3557;">You're registered for %s</h2>
		<p>Hi %s,</p>
		<p>Your registration is confirmed. Present the QR code below at the entrance.</p>
		<div style="background:#f4f4f4;border-radius:8px;padding:16px;text-align:center;">
			<img src="cid:ticket_qr" alt="Ticket QR" style="width:180px;height:180px;" />
			<p style="font-size:20px;letter-spacing:2px;color:#1d3557;"><strong>%s</strong></p>
		</div>
		<h3>Event details</h3>
		<p>
			<strong>Date:</strong> %s<br/>
			<strong>Time:</strong> %s<br/>
			<strong>Location:</strong> %s
		</p>
		%s
		%s
		<p>See you there!</p>
	</div>`,
		logoBlock,
		event.Title,
		participant.Name,
		participant.TicketNumber,
		event.Date.Format("January 2, 2006"),
		event.TimeText,
		event.Location,
		mapsBlock,
		instructionsBlock,
	)
}

func buildCertificateEmailBody(event *models.Event, participant *models.Participant, cert *models.Certificate) string {
	return fmt.Sprintf(`
	<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
		<h2 style="color:#1d3557;">Your certificate is ready</h2>
		<p>Hi %s,</p>
		<p>Thank you for attending <strong>%s</strong>. Your certificate is attached to this email.</p>
		<p><strong>Certificate No:</strong> %s</p>
		<p>Congratulations!</p>
	</div>`,
		participant.Name,
		event.Title,
		cert.CertificateNumber,
	)
}
