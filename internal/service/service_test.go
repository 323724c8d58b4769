package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/productconfig"
	"github.com/jwhan/contango/internal/roll"
	"github.com/jwhan/contango/internal/splice"
	"github.com/jwhan/contango/pkg/logger"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestContinuousSeriesRejectsEmptySchedule(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil,
		&productconfig.Config{}, logger.NewWriter(io.Discard, "debug"))

	_, err := svc.ContinuousSeries(context.Background(), roll.Schedule{}, "price", splice.Additive, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrInvalidSchedule)
}

func TestScheduleInstruments(t *testing.T) {
	schedule := roll.Schedule{
		roll.NewPairSegment(day("2025-01-01"), day("2025-01-10"), 11, 22),
		roll.NewPairSegment(day("2025-01-10"), day("2025-01-20"), 22, 33),
		roll.NewSingleSegment(day("2025-01-20"), day("2025-01-25"), 11),
	}

	assert.Equal(t, []int64{11, 22, 33}, scheduleInstruments(schedule))
}

func TestPriceFieldFallsBackToDefault(t *testing.T) {
	products := &productconfig.Config{
		Products: []productconfig.Product{
			{Root: "CL", PriceField: "settlement"},
		},
	}
	svc := New(nil, nil, nil, nil, nil, products, logger.NewWriter(io.Discard, "debug"))

	assert.Equal(t, "settlement", svc.priceField("CL"))
	assert.Equal(t, "price", svc.priceField("SR3"))
}
