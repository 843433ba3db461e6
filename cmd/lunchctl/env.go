package main

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/config"
	"github.com/interh852/lunch-order/internal/drive"
	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/gemini"
	"github.com/interh852/lunch-order/internal/ledger"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/ops"
	"github.com/interh852/lunch-order/internal/ordercard"
)

// buildEnv wires the operation environment against the real services.
// Google clients authenticate via Application Default Credentials.
func buildEnv(ctx context.Context, database *sql.DB, cfg *config.Config, log *zap.SugaredLogger) (*ops.Env, error) {
	sheetsSvc, err := sheets.NewService(ctx, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, errors.NewExternalCall("sheets", err)
	}
	gmailSvc, err := gmail.NewService(ctx, option.WithScopes(gmail.GmailModifyScope))
	if err != nil {
		return nil, errors.NewExternalCall("gmail", err)
	}
	driveSvc, err := driveapi.NewService(ctx, option.WithScopes(driveapi.DriveScope))
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}

	extractor, err := gemini.NewClient(gemini.Options{
		Model:          cfg.Gemini.Model,
		APIKey:         cfg.Gemini.APIKey,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		MenuPrompt:     cfg.Gemini.MenuPrompt,
		InvoicePrompt:  cfg.Gemini.InvoicePrompt,
	}, log)
	if err != nil {
		return nil, err
	}

	storage := drive.NewService(driveSvc, log)

	return &ops.Env{
		DB:       database,
		Cfg:      cfg,
		Log:      log,
		Ledger:   ledger.NewService(sheetsSvc, cfg.SpreadsheetID, cfg.OrderSheetName, cfg.MenuSheetName, log),
		Mail:     mailer.NewService(gmailSvc, log),
		Storage:  storage,
		Extract:  extractor,
		Notifier: chat.NewSlackNotifier(cfg.Slack.BotToken),
		CardWriterFor: func(ctx context.Context, yearMonth string) (ops.CardWriter, error) {
			card, err := storage.FindOrderCard(ctx, cfg.OrderCardFolderID, yearMonth)
			if err != nil {
				return nil, err
			}
			grid := ordercard.NewSheetsGrid(ctx, sheetsSvc, card.ID, "")
			return ordercard.NewWriter(grid, log), nil
		},
	}, nil
}
