// Package gemini calls the Google Generative Language API to pull
// structured data out of vendor PDFs. The model's JSON answers are
// untrusted input: anything that does not decode is a data-shape error, and
// callers treat that as "no data" for the item at hand.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/invoice"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Options configures a client. Model and APIKey are required; the rest
// default sensibly.
type Options struct {
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
	MenuPrompt     string
	InvoicePrompt  string
}

// MenuItem is one extracted menu row.
type MenuItem struct {
	Date      string `json:"date"`
	StoreName string `json:"storeName"`
	Menu      string `json:"menu"`
}

// Client posts PDFs to the generateContent endpoint.
type Client struct {
	hc   *http.Client
	opts Options
	log  *zap.SugaredLogger
}

// NewClient builds a client. Missing model or key is a configuration error.
func NewClient(opts Options, log *zap.SugaredLogger) (*Client, error) {
	var missing []string
	if opts.Model == "" {
		missing = append(missing, "gemini.model")
	}
	if opts.APIKey == "" {
		missing = append(missing, "gemini.api_key")
	}
	if len(missing) > 0 {
		return nil, errors.NewConfigMissing(missing)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 120
	}
	return &Client{
		hc:   &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second},
		opts: opts,
		log:  log.Named("gemini"),
	}, nil
}

// ExtractMenu asks the model for the menu rows in a PDF.
func (c *Client) ExtractMenu(ctx context.Context, pdf []byte) ([]MenuItem, error) {
	text, err := c.generate(ctx, c.opts.MenuPrompt, pdf)
	if err != nil {
		return nil, err
	}
	var items []MenuItem
	if err := json.Unmarshal([]byte(StripFences(text)), &items); err != nil {
		return nil, errors.NewDataShape("menu extraction", err)
	}
	return items, nil
}

// ExtractInvoice asks the model for the billing summary in an invoice PDF.
func (c *Client) ExtractInvoice(ctx context.Context, pdf []byte) (invoice.Summary, error) {
	text, err := c.generate(ctx, c.opts.InvoicePrompt, pdf)
	if err != nil {
		return invoice.Summary{}, err
	}
	var summary invoice.Summary
	if err := json.Unmarshal([]byte(StripFences(text)), &summary); err != nil {
		return invoice.Summary{}, errors.NewDataShape("invoice extraction", err)
	}
	return summary, nil
}

// request/response bodies, minimal fields only.
type genPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate posts one prompt plus one inline PDF and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, prompt string, pdf []byte) (string, error) {
	body := genRequest{
		Contents: []genContent{{
			Parts: []genPart{
				{Text: prompt},
				{InlineData: &inlineData{
					MIMEType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(pdf),
				}},
			},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.opts.BaseURL, "/"),
		url.PathEscape(c.opts.Model),
		url.QueryEscape(c.opts.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", errors.NewExternalCall("gemini", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", errors.NewExternalCall("gemini", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warnw("generateContent failed", "status", resp.StatusCode)
		return "", errors.NewExternalCall("gemini", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var decoded genResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errors.NewDataShape("gemini response", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.NewDataShape("gemini response", fmt.Errorf("no candidates"))
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// StripFences removes Markdown code fences the model sometimes wraps its
// JSON in.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
