package exams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sa-gov-exams/model"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrDecode           = errors.New("malformed response body")
)

// FetchError reports a failed lookup for a center. The whole center is
// abandoned, no partial result is returned.
type FetchError struct {
	Center   model.Center
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Endpoint, e.Center, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Options struct {
	DatesURL      string
	TimeFramesURL string
	CategoryCode  int
	UserAgent     string
	Timeout       time.Duration
}

type Fetcher struct {
	client *http.Client
	opts   Options
}

func NewFetcher(opts Options) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch returns every bookable date of the center with its time frames filled in.
func (f *Fetcher) Fetch(ctx context.Context, center model.Center) ([]model.ExamDateRecord, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownCenter, center.ID())
	}

	query := url.Values{}
	query.Set("CategoryCode", strconv.Itoa(f.opts.CategoryCode))
	query.Set("CenterId", strconv.Itoa(center.ID()))

	var dates []model.AvailableDate
	if err := f.getJSON(ctx, f.opts.DatesURL, query, &dates); err != nil {
		return nil, &FetchError{Center: center, Endpoint: "exam dates", Err: err}
	}
	if len(dates) == 0 {
		slog.Info("no available dates", slog.String("center", center.String()))
		return []model.ExamDateRecord{}, nil
	}

	records := make([]model.ExamDateRecord, 0, len(dates))
	for _, date := range dates {
		examDate, err := date.ExamDate()
		if err != nil {
			return nil, &FetchError{Center: center, Endpoint: "exam dates", Err: err}
		}
		query.Set("ExamDate", examDate)

		var frames []model.TimeFrame
		if err := f.getJSON(ctx, f.opts.TimeFramesURL, query, &frames); err != nil {
			return nil, &FetchError{Center: center, Endpoint: "exam time frames", Err: err}
		}

		times := make([]string, 0, len(frames))
		for i, frame := range frames {
			if frame.TimeFrameName == "" {
				return nil, &FetchError{Center: center, Endpoint: "exam time frames",
					Err: fmt.Errorf("%w: time frame %d of %s has no name", ErrDecode, i, examDate)}
			}
			times = append(times, frame.TimeFrameName)
		}
		records = append(records, model.NewExamDateRecord(date, times))
	}

	slog.Info("found available dates", slog.String("center", center.String()),
		slog.Int("count", len(records)))
	slog.Debug("available dates", slog.String("center", center.String()), slog.Any("records", records))

	return records, nil
}

func (f *Fetcher) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ka")
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	slog.Debug("requesting exams api", slog.String("url", req.URL.String()))
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return fmt.Errorf("%w: null body", ErrDecode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}
