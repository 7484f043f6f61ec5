package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"timetrack/pkg/logger"
)

// FeishuNotifier sends notifications to Feishu (Lark)
type FeishuNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewFeishuNotifier creates a new Feishu notifier; an empty URL disables it
func NewFeishuNotifier(webhookURL string) *FeishuNotifier {
	if webhookURL == "" {
		logger.Info("Feishu webhook URL not configured, Feishu notifications will be disabled")
	}

	return &FeishuNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FeedbackNotification user feedback forwarded to the team channel
type FeedbackNotification struct {
	UserID      int64
	Rating      string
	Comment     string
	SubmittedAt time.Time
}

// SendFeedbackNotification posts a feedback card
func (f *FeishuNotifier) SendFeedbackNotification(ctx context.Context, notification *FeedbackNotification) error {
	if f.webhookURL == "" {
		return nil
	}

	message := f.buildFeedbackMessage(notification)

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal Feishu message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Feishu notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Feishu API returned status code: %d", resp.StatusCode)
	}

	logger.InfoCtx(ctx, "Feishu feedback notification sent for user: %d", notification.UserID)
	return nil
}

// buildFeedbackMessage builds a Feishu message card for user feedback
func (f *FeishuNotifier) buildFeedbackMessage(notification *FeedbackNotification) map[string]interface{} {
	template := "green"
	if notification.Rating == "dislike" {
		template = "red"
	}

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"template": template,
				"title": map[string]interface{}{
					"content": "New feedback",
					"tag":     "plain_text",
				},
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"fields": []interface{}{
						map[string]interface{}{
							"is_short": true,
							"text": map[string]interface{}{
								"content": fmt.Sprintf("**User**\n%d", notification.UserID),
								"tag":     "lark_md",
							},
						},
						map[string]interface{}{
							"is_short": true,
							"text": map[string]interface{}{
								"content": fmt.Sprintf("**Rating**\n%s", notification.Rating),
								"tag":     "lark_md",
							},
						},
					},
				},
				map[string]interface{}{
					"tag": "hr",
				},
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"content": notification.Comment,
						"tag":     "plain_text",
					},
				},
				map[string]interface{}{
					"tag": "note",
					"elements": []interface{}{
						map[string]interface{}{
							"tag":     "plain_text",
							"content": fmt.Sprintf("Submitted at %s", notification.SubmittedAt.Format("2006-01-02 15:04:05")),
						},
					},
				},
			},
		},
	}
}
