package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cheatdb/internal/config"
	"cheatdb/internal/store"
)

const userAgent = "cheatdb/1.0"

// Service defines the notification surface used by reports and imports.
type Service interface {
	NotifyReportCommitted(ctx context.Context, operator int64, rec store.Identity) error
	NotifyIdentityDeleted(ctx context.Context, id int64) error
	NotifyImportCompleted(ctx context.Context, imported, skipped int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotifyTimeout()},
	}
}

// Noop returns a Service that drops every notification.
func Noop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyReportCommitted(ctx context.Context, operator int64, rec store.Identity) error {
	var b strings.Builder
	fmt.Fprintf(&b, "vk.com/id%d", rec.ID)
	if rec.Handle != "" {
		fmt.Fprintf(&b, " (%s)", rec.Handle)
	}
	if len(rec.Phones) > 0 {
		fmt.Fprintf(&b, "\nphones: %s", strings.Join(rec.Phones, ", "))
	}
	if len(rec.Cards) > 0 {
		fmt.Fprintf(&b, "\ncards: %s", strings.Join(rec.Cards, ", "))
	}
	for _, proof := range rec.Proofs() {
		fmt.Fprintf(&b, "\n%s", proof)
	}
	fmt.Fprintf(&b, "\nreported by id%d", operator)

	tags := []string{"cheatdb", "report"}
	title := "cheatdb - Cheater reported"
	if rec.Fifty {
		tags = append(tags, "fifty")
		title = "cheatdb - Partial-trust report"
	}
	return n.send(ctx, payload{title: title, message: b.String(), tags: tags})
}

func (n *ntfyService) NotifyIdentityDeleted(ctx context.Context, id int64) error {
	return n.send(ctx, payload{
		title:   "cheatdb - Record deleted",
		message: fmt.Sprintf("vk.com/id%d removed from the database", id),
		tags:    []string{"cheatdb", "delete"},
	})
}

func (n *ntfyService) NotifyImportCompleted(ctx context.Context, imported, skipped int) error {
	data := payload{
		title:   "cheatdb - Import complete",
		message: fmt.Sprintf("Imported %d records, skipped %d lines", imported, skipped),
		tags:    []string{"cheatdb", "import"},
	}
	if skipped > 0 {
		data.tags = append(data.tags, "warning")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "cheatdb - Test",
		message:  "Notification system test",
		tags:     []string{"cheatdb", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyReportCommitted(context.Context, int64, store.Identity) error { return nil }
func (noopService) NotifyIdentityDeleted(context.Context, int64) error                 { return nil }
func (noopService) NotifyImportCompleted(context.Context, int, int) error              { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
