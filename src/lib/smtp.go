package lib

import (
	"bytes"
	"etms/src/types"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

func GetSMTPClient() (*mail.Client, error) {
	host := os.Getenv("SMTP_HOST")
	portEnv := os.Getenv("SMTP_PORT")
	port, err := strconv.Atoi(portEnv)
	if err != nil {
		port = 587
	}
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASSWORD")
	c, err := mail.NewClient(host, mail.WithPort(port), mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(user), mail.WithPassword(pass))
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

type MailAttachment struct {
	Filename string
	Data     []byte
}

// InlineEmbed is attached inline so HTML bodies can reference it via
// cid:{ContentID}.
type InlineEmbed struct {
	Filename  string
	ContentID string
	Data      []byte
}

type SendMailInput struct {
	From        string
	FromName    string
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	Body        string
	Html        bool
	Attachments []MailAttachment
	Embeds      []InlineEmbed
}

func SendMail(inputParams *SendMailInput) error {
	c, err := GetSMTPClient()
	if err != nil {
		return err
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(inputParams.FromName, inputParams.From); err != nil {
		log.Printf("Failed to set From address: %s\n", err.Error())
	}
	if err := msg.To(inputParams.To...); err != nil {
		log.Printf("Failed to set To address: %s\n", err.Error())
	}
	if inputParams.ReplyTo != "" {
		if err := msg.ReplyTo(inputParams.ReplyTo); err != nil {
			log.Printf("Failed to set ReplyTo address: %s\n", err.Error())
		}
	}
	if err := msg.Cc(inputParams.Cc...); err != nil {
		log.Printf("Failed to set Cc address: %s\n", err.Error())
	}
	if err := msg.Bcc(inputParams.Bcc...); err != nil {
		log.Printf("Failed to set Bcc address: %s\n", err.Error())
	}
	msg.Subject(inputParams.Subject)
	if inputParams.Html {
		msg.SetBodyString(mail.TypeTextHTML, inputParams.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, inputParams.Body)
	}
	for _, a := range inputParams.Attachments {
		if err := msg.AttachReader(a.Filename, bytes.NewReader(a.Data)); err != nil {
			log.Printf("Failed to attach %s: %s\n", a.Filename, err.Error())
		}
	}
	for _, e := range inputParams.Embeds {
		if err := msg.EmbedReader(e.Filename, bytes.NewReader(e.Data), mail.WithFileContentID(e.ContentID)); err != nil {
			log.Printf("Failed to embed %s: %s\n", e.Filename, err.Error())
		}
	}
	if err := c.DialAndSend(msg); err != nil {
		return err
	}
	return nil
}

type MailSendFunc func(*SendMailInput) error

var sendFn MailSendFunc = SendMail

// NewMailSender replaces the transport. Used by tests to capture messages
// instead of dialing SMTP.
func NewMailSender(fn MailSendFunc) {
	sendFn = fn
}

const mailMaxRetries = 3

var backoffFn = time.Sleep

// NewBackoff replaces the retry sleep. Used by tests.
func NewBackoff(fn func(time.Duration)) {
	backoffFn = fn
}

// SendMailWithRetry attempts delivery up to three times with 2^n second
// backoff. Provider throttle responses are never retried; they come back as
// a rate-limited SendError so callers can abort whole batches.
func SendMailWithRetry(inputParams *SendMailInput) error {
	var lastErr error
	for attempt := 0; attempt < mailMaxRetries; attempt++ {
		err := sendFn(inputParams)
		if err == nil {
			return nil
		}
		if types.IsRateLimitError(err) {
			log.Printf("[mail] Provider rate limit hit: %s\n", err.Error())
			return &types.SendError{RateLimited: true, Err: err}
		}
		lastErr = err
		if attempt < mailMaxRetries-1 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[mail] Send attempt %d failed (%s). Retrying in %s\n", attempt+1, err.Error(), wait)
			backoffFn(wait)
		}
	}
	return &types.SendError{Err: lastErr}
}
