package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeWebhookFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webhooks.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write webhook file: %v", err)
	}
	return path
}

func TestLoadWebhookFile_Valid(t *testing.T) {
	path := writeWebhookFile(t, `
explorer_tx: https://explorer.ark.io/transaction/
webhooks:
  - endpoint: https://hooks.slack.com/services/T00/B00/XXX
    events: [block.forged, wallet.vote]
    payload:
      msg: text
      username: forger
      icon_emoji: ":robot_face:"
  - endpoint: https://api.pushover.net/1/messages.json
    events:
      - forger.missing
    payload:
      msg: message
      token: app-token
      user: user-key
      priority: 1
`)

	wf, err := LoadWebhookFile(path)
	if err != nil {
		t.Fatalf("LoadWebhookFile error: %v", err)
	}

	if wf.ExplorerTx != "https://explorer.ark.io/transaction/" {
		t.Fatalf("unexpected explorer tx: %s", wf.ExplorerTx)
	}
	if len(wf.Webhooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(wf.Webhooks))
	}

	slackHook := wf.Webhooks[0]
	if slackHook.Payload.MessageField != "text" {
		t.Fatalf("unexpected message field: %s", slackHook.Payload.MessageField)
	}
	if slackHook.Payload.Fields["username"] != "forger" {
		t.Fatalf("expected inline fields to be kept, got %+v", slackHook.Payload.Fields)
	}
	if _, ok := slackHook.Payload.Fields["msg"]; ok {
		t.Fatalf("msg must not leak into inline fields")
	}
	if len(slackHook.Events) != 2 || slackHook.Events[1] != "wallet.vote" {
		t.Fatalf("unexpected events: %v", slackHook.Events)
	}

	push := wf.Webhooks[1]
	if push.Payload.Token != "app-token" || push.Payload.User != "user-key" {
		t.Fatalf("expected push credentials, got %+v", push.Payload)
	}
	if push.Payload.Fields["priority"] != 1 {
		t.Fatalf("expected priority field, got %+v", push.Payload.Fields)
	}
}

func TestLoadWebhookFile_KeepsUnknownEventNames(t *testing.T) {
	path := writeWebhookFile(t, `
webhooks:
  - endpoint: https://example.com/hook
    events: [block.forged, not.an.event]
`)

	wf, err := LoadWebhookFile(path)
	if err != nil {
		t.Fatalf("LoadWebhookFile error: %v", err)
	}
	if len(wf.Webhooks[0].Events) != 2 {
		t.Fatalf("expected event names to be passed through, got %v", wf.Webhooks[0].Events)
	}
}

func TestLoadWebhookFile_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no webhooks",
			content: "webhooks: []\n",
			wantErr: "no webhooks",
		},
		{
			name: "missing endpoint",
			content: `
webhooks:
  - events: [block.forged]
`,
			wantErr: "endpoint is required",
		},
		{
			name: "relative endpoint",
			content: `
webhooks:
  - endpoint: /hook
    events: [block.forged]
`,
			wantErr: "webhook 0",
		},
		{
			name: "no events",
			content: `
webhooks:
  - endpoint: https://example.com/hook
`,
			wantErr: "at least one event",
		},
		{
			name: "bad explorer url",
			content: `
explorer_tx: explorer
webhooks:
  - endpoint: https://example.com/hook
    events: [block.forged]
`,
			wantErr: "explorer_tx",
		},
		{
			name:    "malformed yaml",
			content: "webhooks: [",
			wantErr: "parse webhook file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadWebhookFile(writeWebhookFile(t, tc.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadWebhookFile_Missing(t *testing.T) {
	if _, err := LoadWebhookFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadWebhookFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
