package bento

import "time"

// priceScale is the vendor's fixed-point price unit (1e-9)
const priceScale = 1e9

// definitionRecord is one instrument definition row from the
// timeseries endpoint, schema=definition. Timestamps arrive as unix
// nanoseconds encoded as strings.
type definitionRecord struct {
	InstrumentID    int64  `json:"instrument_id"`
	RawSymbol       string `json:"raw_symbol"`
	InstrumentClass string `json:"instrument_class"`
	Expiration      int64  `json:"expiration,string"`
	Activation      int64  `json:"activation,string"`
}

// ohlcvRecord is one daily bar row, schema=ohlcv-1d. Prices are
// fixed-point integers at 1e-9 scale.
type ohlcvRecord struct {
	InstrumentID int64 `json:"instrument_id"`
	TsEvent      int64 `json:"ts_event,string"`
	Open         int64 `json:"open,string"`
	High         int64 `json:"high,string"`
	Low          int64 `json:"low,string"`
	Close        int64 `json:"close,string"`
	Volume       int64 `json:"volume"`
}

// LiveBar is one bar pushed over the live stream
type LiveBar struct {
	InstrumentID int64
	Time         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
}

func nanosToTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func scaledPrice(v int64) float64 {
	return float64(v) / priceScale
}
