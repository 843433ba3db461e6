package ops

import (
	"context"
	"fmt"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/order"
)

// NotifyOrdersOutput contains the result of the NotifyOrders operation.
type NotifyOrdersOutput struct {
	PeriodKey string `json:"period_key,omitempty"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Orders    int    `json:"orders"`
}

// NotifyOrders posts the order roster for the next open week to the
// channel, so people can check their own entries before the order goes
// out. Once the order email is sent the roster post is moot.
func NotifyOrders(ctx context.Context, env *Env) (*NotifyOrdersOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("notify-orders")

	out := &NotifyOrdersOutput{}
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

	records, err := env.Ledger.OrdersForDates(ctx, dates)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	out.Orders = len(records)

	message := chat.FormatWeeklyOrders(records)
	if _, err := env.Notifier.Post(ctx, env.Cfg.Slack.ChannelID, message); err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}

	env.finishRun(runID, db.RunStatusOK, fmt.Sprintf("%d orders", out.Orders))
	return out, nil
}
