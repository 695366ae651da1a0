package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"csvwatch/internal/config"
)

const userAgent = "csvwatch/0.1.0"

// Service defines the notification surface exposed to the monitor.
type Service interface {
	NotifyMergeCompleted(ctx context.Context, fileName string, rows, replaced int, dropped []string) error
	NotifyFileFailed(ctx context.Context, fileName string, cause error) error
	NotifyRunCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		mergeCompleted: cfg.Notifications.MergeCompleted,
		fileFailed:     cfg.Notifications.FileFailed,
		runSummary:     cfg.Notifications.RunSummary,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	mergeCompleted bool
	fileFailed     bool
	runSummary     bool
}

func (n *ntfyService) NotifyMergeCompleted(ctx context.Context, fileName string, rows, replaced int, dropped []string) error {
	if !n.mergeCompleted {
		return nil
	}
	message := fmt.Sprintf("Merged %s: %d rows in master, %d keys replaced", strings.TrimSpace(fileName), rows, replaced)
	if len(dropped) > 0 {
		message = fmt.Sprintf("%s\nDropped columns: %s", message, strings.Join(dropped, ", "))
	}
	data := payload{
		title:   "csvwatch - Merge Complete",
		message: message,
		tags:    []string{"csvwatch", "merge", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFileFailed(ctx context.Context, fileName string, cause error) error {
	if !n.fileFailed {
		return nil
	}
	detail := "unknown"
	if cause != nil {
		detail = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "csvwatch - File Failed",
		message:  fmt.Sprintf("Failed %s: %s", strings.TrimSpace(fileName), detail),
		tags:     []string{"csvwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.runSummary {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "csvwatch - Run Complete"
		message = fmt.Sprintf("Scan complete: %d files merged in %s", processed, duration)
	} else {
		title = "csvwatch - Run Complete (with errors)"
		message = fmt.Sprintf("Scan complete: %d merged, %d failed in %s", processed, failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"csvwatch", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "csvwatch - Test",
		message:  "Notification system test",
		tags:     []string{"csvwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyMergeCompleted(context.Context, string, int, int, []string) error { return nil }
func (noopService) NotifyFileFailed(context.Context, string, error) error                  { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error      { return nil }
func (noopService) TestNotification(context.Context) error                                 { return nil }
