// Package config loads the workflow configuration from a JSON file with
// environment overrides for secrets.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	apperrors "github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/pricing"
)

// Environment variables that override the corresponding file values.
// Secrets belong in the environment, not in config.json.
const (
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvSlackBotToken = "SLACK_BOT_TOKEN"
)

// Config holds the full workflow configuration. Callers load it once and
// pass it explicitly; there is no module-level cache.
type Config struct {
	// SpreadsheetID identifies the order-history spreadsheet.
	SpreadsheetID string `json:"spreadsheet_id"`

	// OrderSheetName is the tab holding order-history rows.
	OrderSheetName string `json:"order_sheet_name"`

	// MenuSheetName is the tab holding extracted menu rows.
	MenuSheetName string `json:"menu_sheet_name"`

	// Drive folder ids for menu PDFs, order-card spreadsheets, and saved
	// invoice PDFs.
	MenuFolderID      string `json:"menu_folder_id"`
	OrderCardFolderID string `json:"order_card_folder_id"`
	InvoiceFolderID   string `json:"invoice_folder_id"`

	Gemini GeminiConfig `json:"gemini"`
	Slack  SlackConfig  `json:"slack"`
	Mail   MailConfig   `json:"mail"`

	// OrderAppURL is the order entry form linked from announcements.
	OrderAppURL string `json:"order_app_url"`

	// Prices is the vendor's tiered price table.
	Prices pricing.Table `json:"prices"`
}

// GeminiConfig configures the document-extraction LLM calls.
type GeminiConfig struct {
	Model          string `json:"model"`
	APIKey         string `json:"api_key,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`

	// MenuPrompt and InvoicePrompt are the extraction instructions sent
	// alongside the PDF.
	MenuPrompt    string `json:"menu_prompt"`
	InvoicePrompt string `json:"invoice_prompt"`
}

// SlackConfig configures the notification channel.
type SlackConfig struct {
	BotToken  string `json:"bot_token,omitempty"`
	ChannelID string `json:"channel_id"`
}

// MailConfig configures Gmail search and draft creation.
type MailConfig struct {
	// VendorEmail is the recipient of order and change emails.
	VendorEmail string `json:"vendor_email"`

	// SenderName and CompanyName appear in email signatures.
	SenderName  string `json:"sender_name"`
	CompanyName string `json:"company_name"`

	// GeneralAffairs receives invoice approval drafts.
	GeneralAffairsName  string `json:"general_affairs_name"`
	GeneralAffairsEmail string `json:"general_affairs_email"`

	// OrderSubjectKeyword is the fixed keyword in order email subjects,
	// used by the sent-check search.
	OrderSubjectKeyword string `json:"order_subject_keyword"`

	// InvoiceQuery is the Gmail search for incoming invoice mail.
	InvoiceQuery string `json:"invoice_query"`
}

// DefaultConfig returns the defaults applied under the loaded file.
func DefaultConfig() *Config {
	return &Config{
		OrderSheetName: "注文履歴",
		MenuSheetName:  "メニュー",
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 120,
		},
		Mail: MailConfig{
			OrderSubjectKeyword: "弁当注文",
		},
	}
}

// Load reads baseDir/config.json, applies defaults for absent fields, and
// pulls secrets from the environment. A missing file yields defaults plus
// environment values; Validate decides whether that is enough to run.
func Load(baseDir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NewInternal(err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewDataShape("config.json", err)
		}
	}

	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvSlackBotToken); v != "" {
		cfg.Slack.BotToken = v
	}

	return cfg, nil
}

// Validate reports every missing required field at once so an operator can
// fix the configuration in one pass. Price tables are required because the
// reconciler cannot price a month without one.
func (c *Config) Validate() error {
	var missing []string

	required := []struct {
		key   string
		value string
	}{
		{"spreadsheet_id", c.SpreadsheetID},
		{"order_sheet_name", c.OrderSheetName},
		{"menu_sheet_name", c.MenuSheetName},
		{"menu_folder_id", c.MenuFolderID},
		{"order_card_folder_id", c.OrderCardFolderID},
		{"invoice_folder_id", c.InvoiceFolderID},
		{"gemini.model", c.Gemini.Model},
		{"gemini.api_key (or $" + EnvGeminiAPIKey + ")", c.Gemini.APIKey},
		{"gemini.menu_prompt", c.Gemini.MenuPrompt},
		{"gemini.invoice_prompt", c.Gemini.InvoicePrompt},
		{"slack.bot_token (or $" + EnvSlackBotToken + ")", c.Slack.BotToken},
		{"slack.channel_id", c.Slack.ChannelID},
		{"mail.vendor_email", c.Mail.VendorEmail},
		{"mail.order_subject_keyword", c.Mail.OrderSubjectKeyword},
		{"mail.invoice_query", c.Mail.InvoiceQuery},
		{"order_app_url", c.OrderAppURL},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}

	if c.Prices.Flat == nil && c.Prices.PerSize == nil {
		missing = append(missing, "prices.flat or prices.per_size")
	}

	if len(missing) > 0 {
		return apperrors.NewConfigMissing(missing)
	}
	return nil
}
