package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nholik/delegate-sentinel/internal/config"
	"github.com/slack-go/slack"
)

// ErrMissingCredentials is returned when a push target lacks its token or user.
var ErrMissingCredentials = errors.New("push target requires token and user")

// DefaultMessageField returns the body key that carries the message when the
// target does not declare one.
func DefaultMessageField(platform Platform) string {
	switch platform {
	case PlatformDiscord:
		return "content"
	case PlatformPush:
		return "message"
	default:
		return "text"
	}
}

// BuildPayload merges the configured payload fields with the rendered message.
func BuildPayload(platform Platform, schema config.PayloadSchema, message string) (map[string]any, error) {
	if platform == PlatformPush && (schema.Token == "" || schema.User == "") {
		return nil, ErrMissingCredentials
	}

	body := make(map[string]any, len(schema.Fields)+4)
	if platform == PlatformSlack {
		base, err := slackBody(message)
		if err != nil {
			return nil, err
		}
		body = base
	}
	for key, value := range schema.Fields {
		body[key] = value
	}
	if schema.Token != "" {
		body["token"] = schema.Token
	}
	if schema.User != "" {
		body["user"] = schema.User
	}

	field := schema.MessageField
	if field == "" {
		field = DefaultMessageField(platform)
	}
	body[field] = message

	return body, nil
}

// EncodePayload builds and marshals the outgoing JSON body.
func EncodePayload(platform Platform, schema config.PayloadSchema, message string) ([]byte, error) {
	body, err := BuildPayload(platform, schema, message)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return encoded, nil
}

// slackBody renders message as a Slack webhook message with a single mrkdwn
// section block. Configured payload fields are merged over it.
func slackBody(message string) (map[string]any, error) {
	section := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, message, false, false), nil, nil)
	msg := slack.WebhookMessage{
		Text:   message,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{section}},
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal slack message: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(encoded, &body); err != nil {
		return nil, fmt.Errorf("decode slack message: %w", err)
	}
	return body, nil
}
