package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/sony/gobreaker"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	URL         string                `json:"url,omitempty"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	TitleLink string       `json:"title_link,omitempty"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	KindSlack   = "slack"
	KindDiscord = "discord"

	ColorBlue = 3447003 // #3498DB

	Username = "Berai"
)

// WebhookNotifier posts assignments to a Slack or Discord incoming webhook.
// Calls go through a circuit breaker so a dead endpoint fails fast.
type WebhookNotifier struct {
	url     string
	kind    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWebhookNotifier(url, kind string, timeout time.Duration) (*WebhookNotifier, error) {
	if kind != KindSlack && kind != KindDiscord {
		return nil, fmt.Errorf("unsupported webhook kind: %s", kind)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        kind + "-webhook-cb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &WebhookNotifier{
		url:     url,
		kind:    kind,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		now:     time.Now,
	}, nil
}

func (w *WebhookNotifier) TaskAssigned(ctx context.Context, a Assignment) error {
	var payload any
	switch w.kind {
	case KindDiscord:
		payload = w.discordPayload(a)
	default:
		payload = w.slackPayload(a)
	}

	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.post(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", w.kind, err)
	}
	return nil
}

func (w *WebhookNotifier) discordPayload(a Assignment) DiscordWebhookRequest {
	return DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**You have a new task!**",
				Description: fmt.Sprintf("Hi %s, a new task has been assigned to you in the project **%q**.", a.AssigneeName, a.ProjectName),
				Color:       ColorBlue,
				URL:         a.ProjectURL,
				Fields: []DiscordWebhookField{
					{Name: "Task", Value: a.TaskTitle, Inline: false},
					{Name: "Priority", Value: a.Priority, Inline: true},
					{Name: "Due Date", Value: a.DueDateLabel(), Inline: true},
					{Name: "Assignee", Value: a.AssigneeEmail, Inline: true},
				},
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Project: %s | Berai", a.ProjectName),
				},
				Timestamp: w.now().Format(time.RFC3339),
			},
		},
	}
}

func (w *WebhookNotifier) slackPayload(a Assignment) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":clipboard:",
		Text:      fmt.Sprintf(":clipboard: *New task for %s*", a.AssigneeName),
		Attachments: []SlackAttachment{
			{
				Color:     "#3498DB",
				Title:     a.TaskTitle,
				TitleLink: a.ProjectURL,
				Text:      fmt.Sprintf("A new task has been assigned to you in the project %q.", a.ProjectName),
				Fields: []SlackField{
					{Title: "Priority", Value: a.Priority, Short: true},
					{Title: "Due Date", Value: a.DueDateLabel(), Short: true},
					{Title: "Assignee", Value: a.AssigneeEmail, Short: false},
				},
				Footer:    fmt.Sprintf("Project: %s", a.ProjectName),
				Timestamp: w.now().Unix(),
			},
		},
	}
}

func (w *WebhookNotifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
