package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sa-gov-exams/model"
)

const (
	EmojiCar = "🚗"

	// MaxEmbedFields is the Discord limit of fields per embed. Extra records are dropped.
	MaxEmbedFields = 25
	EmbedColor     = 0x00FF00
	BookingURL     = "https://my.sa.gov.ge/drivinglicenses/practicalexam"
)

// DeliveryError is returned when the webhook answers with a non-2xx status.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}

// UnpopulatedRecordError is returned for a record whose time frames were never fetched.
type UnpopulatedRecordError struct {
	BookingDate string
}

func (e *UnpopulatedRecordError) Error() string {
	return fmt.Sprintf("record %s has no fetched exam times", e.BookingDate)
}

func BuildMessage(center model.Center, records []model.ExamDateRecord, now time.Time) model.WebhookMessage {
	name := center.DisplayName()
	embed := model.Embed{
		Title: fmt.Sprintf("%v New Driving Test Dates Available in %s!", EmojiCar, name),
		Description: fmt.Sprintf("The following **%d** dates are now open for booking in **%s**:",
			len(records), name),
		URL:       BookingURL,
		Color:     EmbedColor,
		Footer:    &model.EmbedFooter{Text: "Checked " + name},
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	for i, rec := range records {
		if i == MaxEmbedFields {
			break
		}
		embed.Fields = append(embed.Fields, model.EmbedField{
			Name:  fmt.Sprintf("%s — %s", name, rec.BookingDate),
			Value: strings.Join(rec.ExamTimes, ", "),
		})
	}

	return model.WebhookMessage{Embeds: []model.Embed{embed}}
}

type Notifier struct {
	client     *http.Client
	webhookURL string
	now        func() time.Time
}

func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		client:     &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

// Notify posts the records of a center to the webhook. It does nothing when
// there are no records.
func (n *Notifier) Notify(ctx context.Context, center model.Center, records []model.ExamDateRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if !rec.Populated() {
			err := &UnpopulatedRecordError{BookingDate: rec.BookingDate}
			slog.Error("refusing to send webhook", slog.String("center", center.String()),
				slog.String("error", err.Error()))
			return err
		}
	}

	payload, err := json.Marshal(BuildMessage(center, records, n.now()))
	if err != nil {
		return fmt.Errorf("encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		slog.Error("can't create webhook request", slog.String("error", err.Error()))
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Error("can't send webhook request", slog.String("error", err.Error()))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		slog.Error("failed to send webhook", slog.Int("status", resp.StatusCode),
			slog.String("center", center.String()), slog.String("body", string(bodyBytes)))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	slog.Info("webhook sent successfully", slog.String("center", center.String()),
		slog.Int("dates", len(records)))
	return nil
}
