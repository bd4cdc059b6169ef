package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	BookingDateLayout = "02-01-2006"
	ExamDateLayout    = "2006-01-02"
)

var ErrDateParse = errors.New("unexpected booking date format")

// AvailableDate is a bookable date as returned by the exam dates endpoint.
type AvailableDate struct {
	BookingDate       string `json:"bookingDate"`
	BookingDateStatus int    `json:"bookingDateStatus"`
}

// ExamDate returns the booking date in the layout expected by the time frames endpoint.
func (d AvailableDate) ExamDate() (string, error) {
	return ReformatBookingDate(d.BookingDate)
}

type TimeFrame struct {
	TimeFrameID   int    `json:"timeFrameId"`
	TimeFrameName string `json:"timeFrameName"`
}

// ExamDateRecord is a bookable date together with its free time frames.
type ExamDateRecord struct {
	BookingDate       string   `json:"bookingDate"`
	BookingDateStatus int      `json:"bookingDateStatus"`
	ExamTimes         []string `json:"examTimes"`

	populated bool
}

func NewExamDateRecord(date AvailableDate, examTimes []string) ExamDateRecord {
	if examTimes == nil {
		examTimes = []string{}
	}
	return ExamDateRecord{
		BookingDate:       date.BookingDate,
		BookingDateStatus: date.BookingDateStatus,
		ExamTimes:         examTimes,
		populated:         true,
	}
}

// Populated reports whether the time frames were fetched for this record.
func (r ExamDateRecord) Populated() bool {
	return r.populated
}

// ReformatBookingDate converts DD-MM-YYYY into YYYY-MM-DD.
func ReformatBookingDate(bookingDate string) (string, error) {
	t, err := time.Parse(BookingDateLayout, bookingDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrDateParse, bookingDate)
	}
	return t.Format(ExamDateLayout), nil
}
