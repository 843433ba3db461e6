package ops

import (
	"context"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/order"
)

// AnnounceOutput contains the result of the Announce operation.
type AnnounceOutput struct {
	PeriodKey string `json:"period_key,omitempty"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
}

// Announce posts the order-app announcement for the next open week. The
// post goes out only while orders are still being collected.
func Announce(ctx context.Context, env *Env) (*AnnounceOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("announce")

	out := &AnnounceOutput{}
	dates, err := findOpenWeek(ctx, env)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	if dates == nil {
		out.Skipped = true
		out.Reason = "no menu within the search horizon"
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

	message := chat.FormatAnnouncement(startDate, endDate, env.Cfg.OrderAppURL)
	if _, err := env.Notifier.Post(ctx, env.Cfg.Slack.ChannelID, message); err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}

	env.finishRun(runID, db.RunStatusOK, out.PeriodKey)
	return out, nil
}
