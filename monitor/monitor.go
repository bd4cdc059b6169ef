package monitor

import (
	"context"
	"errors"
	"log/slog"

	"sa-gov-exams/model"
)

type Fetcher interface {
	Fetch(ctx context.Context, center model.Center) ([]model.ExamDateRecord, error)
}

type Notifier interface {
	Notify(ctx context.Context, center model.Center, records []model.ExamDateRecord) error
}

type Monitor struct {
	centers  []model.Center
	fetcher  Fetcher
	notifier Notifier
}

func New(centers []model.Center, fetcher Fetcher, notifier Notifier) *Monitor {
	return &Monitor{centers: centers, fetcher: fetcher, notifier: notifier}
}

// Run checks every center once, in order. A failed fetch skips only that
// center; the joined fetch errors are returned after all centers ran.
// Delivery failures are logged by the notifier and do not fail the run.
func (m *Monitor) Run(ctx context.Context) error {
	var errs []error
	for _, center := range m.centers {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		log := slog.With(slog.String("center", center.String()))
		log.Debug("checking center")

		records, err := m.fetcher.Fetch(ctx, center)
		if err != nil {
			log.Error("can't fetch exam dates", slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}

		if err := m.notifier.Notify(ctx, center, records); err != nil {
			log.Debug("notification not delivered", slog.String("error", err.Error()))
		}
	}

	return errors.Join(errs...)
}
