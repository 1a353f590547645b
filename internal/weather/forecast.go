package weather

import (
	"math"
	"time"
)

// DaySlots is the number of bins a forecast is sorted into. The provider
// returns five days that start either today or tomorrow, so one slot at
// either end stays empty.
const DaySlots = 6

// Day is the distilled forecast for one calendar day.
type Day struct {
	Valid         bool
	High          float64
	Low           float64
	WindLow       float64
	WindHigh      float64
	ConditionID   int
	ConditionName string
	Icon          string

	conditions []Point
}

var compass = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW", "N"}

// BearingToDir converts a wind bearing in degrees to a 16-point compass name.
func BearingToDir(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compass[int((deg+11.25)/22.5)]
}

// ForceDayIcon swaps a night icon code ("10n") for its daytime variant.
func ForceDayIcon(icon string) string {
	if icon == "" {
		return icon
	}
	return icon[:len(icon)-1] + "d"
}

func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Aggregate bins points by calendar day relative to now (in now's location)
// and distills each bin into high/low temperature, a wind range and a
// dominant condition.
func Aggregate(points []Point, now time.Time) [DaySlots]Day {
	var days [DaySlots]Day
	for _, p := range points {
		d := civilDays(now, p.Time.In(now.Location()))
		if d < 0 || d >= DaySlots {
			continue
		}
		day := &days[d]
		if !day.Valid {
			day.Valid = true
			day.High, day.Low = p.Temp, p.Temp
			day.WindLow, day.WindHigh = p.WindSpeed, p.WindSpeed
		}
		day.High = math.Max(day.High, p.Temp)
		day.Low = math.Min(day.Low, p.Temp)
		day.WindHigh = math.Max(day.WindHigh, p.WindSpeed)
		day.WindLow = math.Min(day.WindLow, p.WindSpeed)
		day.conditions = append(day.conditions, p)
	}
	for d := range days {
		if days[d].Valid {
			tonight := d == 0 && now.Hour() >= 12
			analyzeConditions(&days[d], tonight)
		}
	}
	return days
}

// analyzeConditions picks the most frequent condition code of the day. Any
// precipitation code (<= 699) makes the whole day a precipitation day, so
// only those codes compete. Unless tonight is set the icon is forced to its
// daytime variant.
func analyzeConditions(day *Day, tonight bool) {
	precip := false
	counts := map[int]int{}
	for _, c := range day.conditions {
		counts[c.ConditionID]++
		if c.ConditionID <= 699 {
			precip = true
		}
	}
	day.ConditionID = -1
	day.ConditionName = "N/A"
	day.Icon = ""
	best := 0
	for _, c := range day.conditions {
		if counts[c.ConditionID] <= best || (precip && c.ConditionID > 699) {
			continue
		}
		best = counts[c.ConditionID]
		day.ConditionID = c.ConditionID
		day.ConditionName = c.ConditionName
		day.Icon = c.Icon
		if !tonight {
			day.Icon = ForceDayIcon(c.Icon)
		}
	}
	day.conditions = nil
}

// Offset is 1 when slot 0 (today) is empty, meaning the provider's window
// starts tomorrow. This heuristic is kept as-is; it can misjudge around
// midnight or across time zones.
func Offset(days [DaySlots]Day) int {
	if !days[0].Valid {
		return 1
	}
	return 0
}

// DayLabel names slot d of a forecast computed at now.
func DayLabel(d int, now time.Time) string {
	switch d {
	case 0:
		if now.Hour() < 12 {
			return "Today"
		}
		return "Tonight"
	case 1:
		return "Tomorrow"
	default:
		return now.AddDate(0, 0, d).Weekday().String()
	}
}
