package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PayloadSchema describes the outgoing JSON body of a webhook. MessageField names the
// key that receives the rendered notification; Fields are merged verbatim.
type PayloadSchema struct {
	MessageField string         `yaml:"msg"`
	Token        string         `yaml:"token,omitempty"`
	User         string         `yaml:"user,omitempty"`
	Fields       map[string]any `yaml:",inline"`
}

// Webhook is a single configured notification endpoint.
type Webhook struct {
	Endpoint string        `yaml:"endpoint"`
	Events   []string      `yaml:"events"`
	Payload  PayloadSchema `yaml:"payload"`
}

// WebhookFile is the parsed YAML structure:
// explorer_tx: <url>
// webhooks: [{endpoint, events, payload}]
type WebhookFile struct {
	ExplorerTx string    `yaml:"explorer_tx"`
	Webhooks   []Webhook `yaml:"webhooks"`
}

// LoadWebhookFile parses and validates a YAML webhook file.
func LoadWebhookFile(path string) (WebhookFile, error) {
	if path == "" {
		return WebhookFile{}, errors.New("webhook file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WebhookFile{}, fmt.Errorf("read webhook file: %w", err)
	}

	var wf WebhookFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return WebhookFile{}, fmt.Errorf("parse webhook file: %w", err)
	}

	if err := validateWebhookFile(wf); err != nil {
		return WebhookFile{}, err
	}

	return wf, nil
}

// validateWebhookFile checks structure only; event names are vetted by the
// subscription registry, which drops unknown names with a warning.
func validateWebhookFile(wf WebhookFile) error {
	if len(wf.Webhooks) == 0 {
		return fmt.Errorf("webhook file contains no webhooks")
	}

	if wf.ExplorerTx != "" {
		if err := validateURL(wf.ExplorerTx, "explorer_tx"); err != nil {
			return err
		}
	}

	for i, hook := range wf.Webhooks {
		if hook.Endpoint == "" {
			return fmt.Errorf("webhook %d: endpoint is required", i)
		}
		if err := validateURL(hook.Endpoint, "endpoint"); err != nil {
			return fmt.Errorf("webhook %d: %w", i, err)
		}
		if len(hook.Events) == 0 {
			return fmt.Errorf("webhook %d: at least one event is required", i)
		}
	}

	return nil
}
