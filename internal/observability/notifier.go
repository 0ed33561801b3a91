package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier sends triggered alerts somewhere a person will see them.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier posts alerts as Slack blocks to url.
func NewWebhookNotifier(url string) Notifier {
	return &webhookNotifier{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

type blockMessage struct {
	Blocks []block `json:"blocks"`
}

type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts alerts in one message. An empty list sends nothing.
func (n *webhookNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(buildAlertMessage(alerts))
	if err != nil {
		return fmt.Errorf("marshalling alert message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting alerts to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildAlertMessage(alerts []Alert) blockMessage {
	blocks := []block{{
		Type: "header",
		Text: &blockText{Type: "plain_text", Text: fmt.Sprintf("Detective health: %d alert(s)", len(alerts))},
	}}
	for i, a := range alerts {
		if i > 0 {
			blocks = append(blocks, block{Type: "divider"})
		}
		blocks = append(blocks, block{
			Type: "section",
			Text: &blockText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("%s *[%s]* `%s` %s", severityMarker(a.Severity), strings.ToUpper(string(a.Severity)), a.Condition, a.Message),
			},
		})
	}
	return blockMessage{Blocks: blocks}
}

func severityMarker(s AlertSeverity) string {
	switch s {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	}
	return "❓"
}
