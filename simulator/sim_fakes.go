package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/weather"
	"github.com/disintegration/imaging"
)

var (
	errWeatherDown = errors.New("simulated weather outage")
	errFeedDown    = errors.New("simulated feed outage")
	errSensorFail  = errors.New("simulated sensor failure")
)

// simWeather produces a plausible, slowly drifting weather picture.
type simWeather struct {
	control *SimControl
	now     func() time.Time
}

func (s simWeather) Current(ctx context.Context) (weather.Current, error) {
	if s.control.Faults().WeatherDown {
		return weather.Current{}, errWeatherDown
	}
	now := s.now()
	temp := diurnal(now)
	return weather.Current{
		Locale:      "Simville",
		Temp:        temp,
		FeelsLike:   temp - 2,
		Humidity:    55,
		WindSpeed:   6 + float64(now.Minute()%5),
		WindDeg:     float64((now.Minute() * 6) % 360),
		ConditionID: 802,
		Condition:   "Clouds",
		Icon:        "03d",
	}, nil
}

func (s simWeather) Forecast(ctx context.Context) (weather.Forecast, error) {
	if s.control.Faults().WeatherDown {
		return weather.Forecast{}, errWeatherDown
	}
	now := s.now()
	start := now.Truncate(3 * time.Hour).Add(3 * time.Hour)
	points := make([]weather.Point, 0, 40)
	codes := []struct {
		id   int
		name string
		icon string
	}{
		{800, "Clear", "01d"}, {801, "Clouds", "02d"}, {500, "Rain", "10d"}, {803, "Clouds", "04d"}, {600, "Snow", "13d"},
	}
	for i := 0; i < 40; i++ {
		at := start.Add(time.Duration(i) * 3 * time.Hour)
		c := codes[(i/8)%len(codes)]
		points = append(points, weather.Point{
			Time:          at,
			Temp:          diurnal(at),
			WindSpeed:     4 + float64(i%6),
			ConditionID:   c.id,
			ConditionName: c.name,
			Icon:          c.icon,
		})
	}
	return weather.Forecast{Locale: "Simville", Points: points}, nil
}

// diurnal peaks at 15:00 local time.
func diurnal(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	return math.Round(60 + 12*math.Cos((h-15)/24*2*math.Pi))
}

type simFeed struct {
	control *SimControl
	now     func() time.Time
}

var simPosts = []struct{ handle, name, text string }{
	{"smith", "Anvil & Co", "Forged a new set of tongs this morning. #blacksmithing"},
	{"woodshop", "Sawdust Collective", "Open shop night is Thursday, bring your own project."},
	{"lathe", "Turning Point", "Spindle gouge sharpened to a mirror finish."},
}

func (s simFeed) Search(ctx context.Context, query string, limit int) ([]feed.Post, error) {
	faults := s.control.Faults()
	if faults.FeedDown {
		return nil, errFeedDown
	}
	if faults.FeedEmpty {
		return nil, nil
	}
	now := s.now()
	out := make([]feed.Post, 0, len(simPosts))
	for i, p := range simPosts {
		out = append(out, feed.Post{
			ID:          fmt.Sprint(i),
			URL:         "https://sim.invalid/@" + p.handle + "/" + fmt.Sprint(i),
			Handle:      p.handle,
			DisplayName: p.name,
			AvatarURL:   "sim://avatar/" + p.handle,
			Text:        feed.Flatten(p.text + " [" + strings.TrimPrefix(query, "#") + "]"),
			CreatedAt:   now.Add(-time.Duration(i+1) * 17 * time.Minute),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s simFeed) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	if s.control.Faults().FeedDown {
		return nil, errFeedDown
	}
	var h uint8
	for _, b := range []byte(rawURL) {
		h = h*31 + b
	}
	return imaging.New(96, 96, color.RGBA{R: h, G: 255 - h, B: 128, A: 255}), nil
}

func simSensor(control *SimControl, now func() time.Time) func() (float64, error) {
	return func() (float64, error) {
		if control.Faults().SensorFail {
			return 0, errSensorFail
		}
		return 45 + float64(now().Second()%10)/2, nil
	}
}
