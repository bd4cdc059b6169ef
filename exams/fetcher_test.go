package exams

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sa-gov-exams/model"
)

type fakeAPI struct {
	mu         sync.Mutex
	dates      string
	datesCode  int
	frames     map[string]string
	framesCode int
	examDates  []string
	centerIDs  []string
}

func (a *fakeAPI) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/dates", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		assert.Equal(t, "4", r.URL.Query().Get("CategoryCode"))
		assert.Equal(t, "ka", r.Header.Get("Accept-Language"))
		a.centerIDs = append(a.centerIDs, r.URL.Query().Get("CenterId"))
		if a.datesCode != 0 {
			w.WriteHeader(a.datesCode)
			return
		}
		_, _ = w.Write([]byte(a.dates))
	})
	mux.HandleFunc("/frames", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		date := r.URL.Query().Get("ExamDate")
		a.examDates = append(a.examDates, date)
		if a.framesCode != 0 {
			w.WriteHeader(a.framesCode)
			return
		}
		_, _ = w.Write([]byte(a.frames[date]))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (a *fakeAPI) calls() (centerIDs, examDates []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.centerIDs...), append([]string(nil), a.examDates...)
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	return NewFetcher(Options{
		DatesURL:      srv.URL + "/dates",
		TimeFramesURL: srv.URL + "/frames",
		CategoryCode:  4,
		UserAgent:     "test-agent",
		Timeout:       5 * time.Second,
	})
}

func TestFetch_EmptyDates(t *testing.T) {
	api := &fakeAPI{dates: `[]`}
	f := newTestFetcher(api.server(t))

	records, err := f.Fetch(context.Background(), model.Rustavi)
	require.NoError(t, err)
	assert.Empty(t, records)

	centerIDs, examDates := api.calls()
	assert.Equal(t, []string{"15"}, centerIDs)
	assert.Empty(t, examDates, "no time frame requests expected")
}

func TestFetch_PopulatesTimeFrames(t *testing.T) {
	api := &fakeAPI{
		dates: `[{"bookingDate":"05-03-2026","bookingDateStatus":1},{"bookingDate":"01-01-2026","bookingDateStatus":2}]`,
		frames: map[string]string{
			"2026-03-05": `[{"timeFrameId":1,"timeFrameName":"09:00"},{"timeFrameId":2,"timeFrameName":"10:00"}]`,
			"2026-01-01": `[{"timeFrameId":3,"timeFrameName":"14:00"}]`,
		},
	}
	f := newTestFetcher(api.server(t))

	records, err := f.Fetch(context.Background(), model.Gori)
	require.NoError(t, err)
	require.Len(t, records, 2)

	centerIDs, examDates := api.calls()
	assert.Equal(t, []string{"2026-03-05", "2026-01-01"}, examDates)
	assert.Equal(t, []string{"7"}, centerIDs)

	assert.Equal(t, "05-03-2026", records[0].BookingDate)
	assert.Equal(t, 1, records[0].BookingDateStatus)
	assert.Equal(t, []string{"09:00", "10:00"}, records[0].ExamTimes)
	assert.True(t, records[0].Populated())

	assert.Equal(t, "01-01-2026", records[1].BookingDate)
	assert.Equal(t, []string{"14:00"}, records[1].ExamTimes)
	assert.True(t, records[1].Populated())
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeAPI
		wantErr error
	}{
		{
			name:    "dates status",
			api:     &fakeAPI{datesCode: http.StatusBadGateway},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "dates malformed",
			api:     &fakeAPI{dates: `{"oops"`},
			wantErr: ErrDecode,
		},
		{
			name:    "dates trailing garbage",
			api:     &fakeAPI{dates: `[] <html>maintenance</html>`},
			wantErr: ErrDecode,
		},
		{
			name:    "dates null",
			api:     &fakeAPI{dates: `null`},
			wantErr: ErrDecode,
		},
		{
			name:    "bad booking date",
			api:     &fakeAPI{dates: `[{"bookingDate":"2026/01/01","bookingDateStatus":1}]`},
			wantErr: model.ErrDateParse,
		},
		{
			name: "frames status",
			api: &fakeAPI{
				dates:      `[{"bookingDate":"01-01-2026","bookingDateStatus":1}]`,
				framesCode: http.StatusInternalServerError,
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "frames malformed",
			api: &fakeAPI{
				dates:  `[{"bookingDate":"01-01-2026","bookingDateStatus":1}]`,
				frames: map[string]string{"2026-01-01": `not json`},
			},
			wantErr: ErrDecode,
		},
		{
			name: "frames without name",
			api: &fakeAPI{
				dates:  `[{"bookingDate":"01-01-2026","bookingDateStatus":1}]`,
				frames: map[string]string{"2026-01-01": `[{"id":1,"name":"10:00"}]`},
			},
			wantErr: ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(tt.api.server(t))

			records, err := f.Fetch(context.Background(), model.Batumi)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, records)

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, model.Batumi, fetchErr.Center)
		})
	}
}

func TestFetch_AbortsOnFirstFrameFailure(t *testing.T) {
	api := &fakeAPI{
		dates:      `[{"bookingDate":"01-01-2026","bookingDateStatus":1},{"bookingDate":"02-01-2026","bookingDateStatus":1}]`,
		framesCode: http.StatusServiceUnavailable,
	}
	f := newTestFetcher(api.server(t))

	_, err := f.Fetch(context.Background(), model.Poti)
	require.Error(t, err)

	_, examDates := api.calls()
	assert.Equal(t, []string{"2026-01-01"}, examDates)
}

func TestFetch_UnknownCenter(t *testing.T) {
	f := NewFetcher(Options{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), model.Center(99))
	require.ErrorIs(t, err, model.ErrUnknownCenter)
}
