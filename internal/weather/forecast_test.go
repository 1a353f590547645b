package weather

import (
	"testing"
	"time"
)

func TestBearingToDir(t *testing.T) {
	cases := map[float64]string{0: "N", 11: "N", 12: "NNE", 90: "E", 180: "S", 225: "SW", 348: "NNW", 349: "N", 359.9: "N", 360: "N", -90: "W"}
	for deg, want := range cases {
		if got := BearingToDir(deg); got != want {
			t.Fatalf("BearingToDir(%v) = %s, want %s", deg, got, want)
		}
	}
}

func point(at time.Time, temp, wind float64, id int, name, icon string) Point {
	return Point{Time: at, Temp: temp, WindSpeed: wind, ConditionID: id, ConditionName: name, Icon: icon}
}

func TestAggregateBinsAndRanges(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
	pts := []Point{
		point(now.Add(3*time.Hour), 60, 5, 800, "Clear", "01d"),
		point(now.Add(6*time.Hour), 70, 12, 800, "Clear", "01d"),
		point(now.Add(24*time.Hour), 55, 3, 500, "Rain", "10n"),
		point(now.Add(27*time.Hour), 58, 8, 803, "Clouds", "04d"),
		point(now.Add(30*time.Hour), 59, 9, 803, "Clouds", "04d"),
		point(now.Add(7*24*time.Hour), 10, 1, 800, "Clear", "01d"),
	}
	days := Aggregate(pts, now)
	if !days[0].Valid || days[0].High != 70 || days[0].Low != 60 || days[0].WindLow != 5 || days[0].WindHigh != 12 {
		t.Fatalf("day 0 = %+v", days[0])
	}
	if days[1].ConditionID != 500 || days[1].ConditionName != "Rain" || days[1].Icon != "10d" {
		t.Fatalf("precipitation should dominate day 1: %+v", days[1])
	}
	for d := 2; d < DaySlots; d++ {
		if days[d].Valid {
			t.Fatalf("day %d should be empty", d)
		}
	}
	if Offset(days) != 0 {
		t.Fatalf("offset with today present should be 0")
	}
}

func TestAggregateMostFrequentAndTonight(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	pts := []Point{
		point(now.Add(1*time.Hour), 60, 5, 801, "Clouds", "02n"),
		point(now.Add(2*time.Hour), 60, 5, 800, "Clear", "01n"),
		point(now.Add(3*time.Hour), 60, 5, 800, "Clear", "01n"),
	}
	days := Aggregate(pts, now)
	if days[0].ConditionID != 800 {
		t.Fatalf("most frequent code should win: %+v", days[0])
	}
	if days[0].Icon != "01n" {
		t.Fatalf("tonight keeps the night icon, got %s", days[0].Icon)
	}
}

func TestOffsetWhenTodayMissing(t *testing.T) {
	now := time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC)
	var pts []Point
	for d := 1; d <= 5; d++ {
		pts = append(pts, point(time.Date(2024, 5, 10+d, 12, 0, 0, 0, time.UTC), 50, 2, 800, "Clear", "01d"))
	}
	days := Aggregate(pts, now)
	if Offset(days) != 1 {
		t.Fatalf("offset = %d, want 1", Offset(days))
	}
	for d := 0; d < 5; d++ {
		if !days[d+Offset(days)].Valid {
			t.Fatalf("column %d has no data", d)
		}
	}
}

func TestDayLabel(t *testing.T) {
	morning := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) // a Friday
	evening := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	if DayLabel(0, morning) != "Today" || DayLabel(0, evening) != "Tonight" {
		t.Fatalf("day 0 labels wrong")
	}
	if DayLabel(1, morning) != "Tomorrow" {
		t.Fatalf("day 1 label wrong")
	}
	if got := DayLabel(2, morning); got != "Sunday" {
		t.Fatalf("day 2 label = %s", got)
	}
}

func TestForceDayIcon(t *testing.T) {
	if ForceDayIcon("10n") != "10d" || ForceDayIcon("") != "" {
		t.Fatalf("ForceDayIcon")
	}
}
