package mailer

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/interh852/lunch-order/internal/errors"
)

const gmailUser = "me"

// starredLabel marks a thread as already processed, mirroring how the inbox
// is starred by hand.
const starredLabel = "STARRED"

// InvoicePDF is one PDF attachment pulled from an invoice message.
type InvoicePDF struct {
	Filename  string
	Data      []byte
	MessageID string
	ThreadID  string
}

// Service wraps the Gmail API for this workflow.
type Service struct {
	svc *gmail.Service
	log *zap.SugaredLogger
}

// NewService wires the mailer to an authenticated Gmail client.
func NewService(svc *gmail.Service, log *zap.SugaredLogger) *Service {
	return &Service{svc: svc, log: log.Named("mailer")}
}

// OrderEmailSent reports whether the order email for a period has already
// been sent.
func (s *Service) OrderEmailSent(ctx context.Context, startDate, endDate, subjectKeyword string) (bool, error) {
	query := OrderEmailQuery(startDate, endDate, subjectKeyword)
	resp, err := s.svc.Users.Messages.List(gmailUser).Q(query).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return false, errors.NewExternalCall("gmail", err)
	}
	sent := len(resp.Messages) > 0
	s.log.Debugw("order email sent check", "query", query, "sent", sent)
	return sent, nil
}

// SearchInvoicePDFs runs the configured invoice search and returns the PDF
// attachments of unprocessed messages. Starred threads are skipped, as are
// messages older than 30 days that the thread search drags along.
func (s *Service) SearchInvoicePDFs(ctx context.Context, query string) ([]InvoicePDF, error) {
	resp, err := s.svc.Users.Messages.List(gmailUser).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, errors.NewExternalCall("gmail", err)
	}

	cutoff := time.Now().AddDate(0, 0, -searchDaysBack).UnixMilli()
	var pdfs []InvoicePDF
	for _, ref := range resp.Messages {
		msg, err := s.svc.Users.Messages.Get(gmailUser, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			s.log.Warnw("failed to fetch message", "id", ref.Id, "error", err)
			continue
		}
		if hasLabel(msg, starredLabel) {
			continue
		}
		if msg.InternalDate < cutoff {
			continue
		}

		for _, part := range flattenParts(msg.Payload) {
			if part.MimeType != "application/pdf" || part.Body == nil || part.Body.AttachmentId == "" {
				continue
			}
			data, err := s.fetchAttachment(ctx, msg.Id, part.Body.AttachmentId)
			if err != nil {
				s.log.Warnw("failed to fetch attachment", "message", msg.Id, "error", err)
				continue
			}
			pdfs = append(pdfs, InvoicePDF{
				Filename:  part.Filename,
				Data:      data,
				MessageID: msg.Id,
				ThreadID:  msg.ThreadId,
			})
		}
	}
	return pdfs, nil
}

// MarkProcessed stars a message so the next run skips its thread.
func (s *Service) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := s.svc.Users.Messages.Modify(gmailUser, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{starredLabel},
	}).Context(ctx).Do()
	if err != nil {
		return errors.NewExternalCall("gmail", err)
	}
	return nil
}

func (s *Service) fetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := s.svc.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(body.Data)
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}

// flattenParts walks a nested MIME tree into a flat part list.
func flattenParts(payload *gmail.MessagePart) []*gmail.MessagePart {
	if payload == nil {
		return nil
	}
	parts := []*gmail.MessagePart{payload}
	for _, child := range payload.Parts {
		parts = append(parts, flattenParts(child)...)
	}
	return parts
}
