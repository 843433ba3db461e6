// Package chat posts workflow notifications to Slack.
package chat

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/interh852/lunch-order/internal/errors"
)

// Notifier is the notification sink the workflows post to.
type Notifier interface {
	// Post sends one message and returns its timestamp.
	Post(ctx context.Context, channelID, text string) (string, error)
}

// SlackNotifier posts via the Slack Web API with a bot token.
type SlackNotifier struct {
	client *slack.Client
}

// NewSlackNotifier builds a notifier from a bot token.
func NewSlackNotifier(botToken string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(botToken)}
}

// Post implements Notifier.
func (n *SlackNotifier) Post(ctx context.Context, channelID, text string) (string, error) {
	_, timestamp, err := n.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false))
	if err != nil {
		return "", errors.NewExternalCall("slack", err)
	}
	return timestamp, nil
}
