package common

import (
	"context"
	"errors"
	"etms/src/db"
	"etms/src/lib"
	awslib "etms/src/lib/aws"
	"etms/src/lib/render"
	"etms/src/models"
	"etms/src/types"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

var certificateChain = render.DefaultChain()

// NewCertificateChain swaps the renderer chain. Used by tests.
func NewCertificateChain(c *render.Chain) {
	certificateChain = c
}

// buildRenderData maps the certificate's config snapshot into render
// input; the live event only supplies identity fields that are immutable
// for a certificate (title, date).
func buildRenderData(event *models.Event, participant *models.Participant, cert *models.Certificate) *render.Data {
	data := &render.Data{
		CertificateNumber: cert.CertificateNumber,
		CertificateType:   cert.CertificateType,
		IssuedDate:        cert.IssuedDate,
		ParticipantName:   participant.Name,
		EventName:         event.Title,
		EventDate:         event.Date.Format("January 2, 2006"),
		EventLocation:     cert.EventLocation,
		EventTheme:        cert.EventTheme,
		OrganizerName:     cert.OrganizerName,
		OrganizerLogoURL:  cert.OrganizerLogoURL,
		SponsorName:       cert.SponsorName,
		SponsorLogoURL:    cert.SponsorLogoURL,
		Signature1Name:     cert.Signature1Name,
		Signature1Title:    cert.Signature1Title,
		Signature1ImageURL: cert.Signature1ImageURL,
		Signature2Name:     cert.Signature2Name,
		Signature2Title:    cert.Signature2Title,
		Signature2ImageURL: cert.Signature2ImageURL,
	}
	if data.EventLocation == "" {
		data.EventLocation = event.Location
	}
	return data
}

// RenderCertificateArtifact runs the fallback chain on the certificate's
// snapshot.
func RenderCertificateArtifact(event *models.Event, participant *models.Participant, cert *models.Certificate) *render.Result {
	return certificateChain.Render(buildRenderData(event, participant, cert))
}

func loadCertificateGraph(certID uint) (*models.Event, *models.Participant, *models.Certificate, error) {
	conn := db.GetDb()
	var cert models.Certificate
	if err := conn.First(&cert, certID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, &types.NotFoundError{Resource: "certificate", ID: certID}
		}
		return nil, nil, nil, err
	}
	var participant models.Participant
	if err := conn.First(&participant, cert.ParticipantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, &types.NotFoundError{Resource: "participant", ID: cert.ParticipantID}
		}
		return nil, nil, nil, err
	}
	var event models.Event
	if err := conn.First(&event, cert.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, &types.NotFoundError{Resource: "event", ID: cert.EventID}
		}
		return nil, nil, nil, err
	}
	return &event, &participant, &cert, nil
}

// RenderCertificateByID loads the certificate graph and renders it.
func RenderCertificateByID(certID uint) (*render.Result, error) {
	event, participant, cert, err := loadCertificateGraph(certID)
	if err != nil {
		return nil, err
	}
	return RenderCertificateArtifact(event, participant, cert), nil
}

// PreviewCertificateHTML renders only the HTML tier, for in-browser
// previews without touching the PDF or image engines.
func PreviewCertificateHTML(certID uint) ([]byte, error) {
	event, participant, cert, err := loadCertificateGraph(certID)
	if err != nil {
		return nil, err
	}
	return render.HTMLDocument(buildRenderData(event, participant, cert)), nil
}

const artifactURLTTL = 2 * time.Hour

// CertificateArtifactURL renders the certificate, stores the artifact and
// returns a presigned download URL, cached in redis for its validity
// window.
func CertificateArtifactURL(certID uint) (*string, error) {
	rd := lib.GetRedisClient()
	cacheKey := fmt.Sprintf("certificates:%d:artifact_url", certID)
	if rd != nil {
		if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil && cached != "" {
			return &cached, nil
		}
	}
	result, err := RenderCertificateByID(certID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("certificates/%d/%s", certID, result.Filename)
	url, err := awslib.S3UploadObject(key, result.Content, result.MimeType, artifactURLTTL)
	if err != nil {
		return nil, err
	}
	if rd != nil {
		if err := rd.SetEx(context.Background(), cacheKey, *url, artifactURLTTL).Err(); err != nil {
			log.Printf("[certificates] Could not cache artifact URL for %d: %s\n", certID, err.Error())
		}
	}
	return url, nil
}
