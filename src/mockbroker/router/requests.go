package router

import (
	"fmt"
	"reflect"
	"time"

	"github.com/gorilla/schema"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type SnapshotQuery struct {
	Symbols []string `schema:"symbol,required"`
}

type KBarsQuery struct {
	Symbol   string             `schema:"symbol,required"`
	Start    time.Time          `schema:"start,required"`
	End      time.Time          `schema:"end,required"`
	Interval models.BarInterval `schema:"interval"`
}

func (q *KBarsQuery) Validate() error {
	if q.Interval == "" {
		q.Interval = models.BarIntervalMinute
	}

	if err := q.Interval.Validate(); err != nil {
		return err
	}

	if q.End.Before(q.Start) {
		return fmt.Errorf("end %s is before start %s", q.End.Format(time.RFC3339), q.Start.Format(time.RFC3339))
	}

	return nil
}

type StreamQuery struct {
	Symbols    []string `schema:"symbol,required"`
	IntervalMs int      `schema:"interval_ms"`
}

type PlaybackSpeedRequest struct {
	Speed float64 `json:"speed"`
}

type PlaybackSpeedResponse struct {
	Clock           models.ClockReading `json:"clock"`
	SupportedSpeeds []float64           `json:"supported_speeds"`
}

type CreateAccountResponse struct {
	ID      string                 `json:"id"`
	Summary *models.AccountSummary `json:"summary"`
}

type MatchResponse struct {
	Fills []models.FillRecord `json:"fills"`
}

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(time.Time{}, func(s string) reflect.Value {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return reflect.Value{}
		}

		return reflect.ValueOf(t)
	})

	return decoder
}
