package ops

import (
	"context"

	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/order"
)

// WeeklyOrderOutput contains the result of the WeeklyOrder operation.
type WeeklyOrderOutput struct {
	PeriodKey string `json:"period_key,omitempty"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Orders    int    `json:"orders"`
	DraftID   string `json:"draft_id,omitempty"`
}

// WeeklyOrder writes the next open week's totals onto the order card,
// exports the card, and leaves the order email draft for review. The period
// snapshot is saved last: a draft failure aborts the run, a snapshot
// failure is logged and left for the next detection run to baseline.
func WeeklyOrder(ctx context.Context, env *Env) (*WeeklyOrderOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("weekly-order")

	out := &WeeklyOrderOutput{}
	dates, err := findOpenWeek(ctx, env)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	if dates == nil {
		out.Skipped = true
		out.Reason = "no menu within the search horizon"
		env.Log.Warnw("no menu found, skipping order", "weeks_ahead", maxWeeksAhead)
		env.finishRun(runID, db.RunStatusSkipped, out.Reason)
		return out, nil
	}

	startDate, endDate := dates[0], dates[len(dates)-1]
	out.PeriodKey = order.PeriodKey(startDate, endDate)

	sent, err := env.Mail.OrderEmailSent(ctx, startDate, endDate, env.Cfg.Mail.OrderSubjectKeyword)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	if sent {
		out.Skipped = true
		out.Reason = "order email already sent"
		env.finishRun(runID, db.RunStatusSkipped, out.Reason)
		return out, nil
	}

	records, err := env.Ledger.OrdersForDates(ctx, dates)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	out.Orders = len(records)

	agg := order.AggregateByDateAndSize(records)
	if err := writeOrderCards(ctx, env, agg, dates); err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}

	attachments, err := exportOrderCards(ctx, env, dates)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}

	store := vendorGreetingName(ctx, env, dates)
	draftID, err := env.Mail.CreateDraft(ctx, mailer.Draft{
		To:          env.Cfg.Mail.VendorEmail,
		Subject:     mailer.OrderEmailSubject(startDate, endDate),
		Markdown:    mailer.OrderEmailMarkdown(store, env.Cfg.Mail.SenderName),
		Attachments: attachments,
	})
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	out.DraftID = draftID

	// Snapshot failure does not undo the draft; the next detection run
	// baselines the period instead.
	if err := db.ReplaceSnapshot(env.DB, out.PeriodKey, records); err != nil {
		env.Log.Errorw("failed to save period snapshot", "period", out.PeriodKey, "error", err)
	}

	env.finishRun(runID, db.RunStatusOK, out.PeriodKey)
	return out, nil
}
