package owm

// Payload is the decoded One Call 3.0 response, reduced to the fields
// the sync pipeline consumes. Required numeric fields are pointers so
// that an absent field is distinguishable from a zero value; the
// normalizer rejects payloads with missing required fields instead of
// synthesizing defaults.
type Payload struct {
	// Timezone is the IANA zone name for the requested coordinates.
	Timezone string `json:"timezone"`

	Current *CurrentBlock `json:"current"`
	Daily   []DailyBlock  `json:"daily"`
}

// ConditionInfo is one element of a block's weather condition list.
type ConditionInfo struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Precipitation is the sub-object used by the current block for snow
// and rain volumes, keyed by accumulation duration.
type Precipitation struct {
	OneHour float64 `json:"1h"`
}

// CurrentBlock describes conditions at the observation timestamp.
// Temperatures are Kelvin as delivered by the API.
type CurrentBlock struct {
	Dt        int64           `json:"dt"`
	Temp      *float64        `json:"temp"`
	FeelsLike *float64        `json:"feels_like"`
	Humidity  *float64        `json:"humidity"`
	WindSpeed *float64        `json:"wind_speed"`
	Weather   []ConditionInfo `json:"weather"`
	Snow      *Precipitation  `json:"snow,omitempty"`
	Rain      *Precipitation  `json:"rain,omitempty"`
}

// DailyTemp carries the per-day temperature aggregate.
type DailyTemp struct {
	Day float64 `json:"day"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DailyFeelsLike carries the per-day feels-like aggregate.
type DailyFeelsLike struct {
	Day float64 `json:"day"`
}

// DailyBlock describes a single forecast day. Unlike the current
// block, daily snow/rain are plain millimeter totals.
type DailyBlock struct {
	Dt        int64           `json:"dt"`
	Summary   string          `json:"summary"`
	Temp      *DailyTemp      `json:"temp"`
	FeelsLike *DailyFeelsLike `json:"feels_like"`
	Humidity  *float64        `json:"humidity"`
	WindSpeed *float64        `json:"wind_speed"`
	Weather   []ConditionInfo `json:"weather"`
	Pop       *float64        `json:"pop"`
	Snow      *float64        `json:"snow"`
	Rain      *float64        `json:"rain"`
}
