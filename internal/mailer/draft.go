package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/yuin/goldmark"
	"google.golang.org/api/gmail/v1"

	"github.com/interh852/lunch-order/internal/errors"
)

// Attachment is one file attached to a draft.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Draft describes an email to be left in the drafts folder for a human to
// review and send. The body is Markdown; the rendered HTML rides along as
// the rich alternative.
type Draft struct {
	To          string
	Subject     string
	Markdown    string
	Attachments []Attachment
}

// CreateDraft composes the MIME message and stores it as a Gmail draft.
func (s *Service) CreateDraft(ctx context.Context, d Draft) (string, error) {
	raw, err := composeMIME(d)
	if err != nil {
		return "", err
	}

	created, err := s.svc.Users.Drafts.Create(gmailUser, &gmail.Draft{
		Message: &gmail.Message{
			Raw: base64.RawURLEncoding.EncodeToString(raw),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", errors.NewExternalCall("gmail", err)
	}
	s.log.Infow("draft created", "to", d.To, "subject", d.Subject, "attachments", len(d.Attachments))
	return created.Id, nil
}

// composeMIME renders a draft as an RFC 822 message: multipart/mixed holding
// a multipart/alternative body (plain Markdown plus rendered HTML) and the
// attachments.
func composeMIME(d Draft) ([]byte, error) {
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(d.Markdown), &html); err != nil {
		return nil, errors.NewInternal(err)
	}

	var msg bytes.Buffer
	mixed := multipart.NewWriter(&msg)

	fmt.Fprintf(&msg, "To: %s\r\n", d.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", d.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	// body: text and html alternatives
	altBuf := &bytes.Buffer{}
	alt := multipart.NewWriter(altBuf)

	textPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	textPart.Write([]byte(d.Markdown))

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	htmlPart.Write(html.Bytes())
	alt.Close()

	bodyPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary())},
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	bodyPart.Write(altBuf.Bytes())

	for _, a := range d.Attachments {
		header := textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", a.MIMEType, a.Filename)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		}
		part, err := mixed.CreatePart(header)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		part.Write([]byte(base64.StdEncoding.EncodeToString(a.Data)))
	}

	if err := mixed.Close(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return msg.Bytes(), nil
}
