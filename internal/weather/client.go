package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Current is one current-conditions observation.
type Current struct {
	Locale      string
	Temp        float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   float64
	WindDeg     float64
	ConditionID int
	Condition   string
	Icon        string
}

// Point is one 3-hour forecast sample.
type Point struct {
	Time          time.Time
	Temp          float64
	WindSpeed     float64
	ConditionID   int
	ConditionName string
	Icon          string
}

type Forecast struct {
	Locale string
	Points []Point
}

type Client interface {
	Current(ctx context.Context) (Current, error)
	Forecast(ctx context.Context) (Forecast, error)
}

// Units selects the measurement system requested from the provider.
type Units string

const (
	Imperial Units = "imperial"
	Metric   Units = "metric"
)

func (u Units) Temp() string {
	if u == Metric {
		return "C"
	}
	return "F"
}

func (u Units) Speed() string {
	if u == Metric {
		return "m/s"
	}
	return "mph"
}

const DefaultBaseURL = "https://api.openweathermap.org"

// OpenWeatherClient talks to the OpenWeather 2.5 current and 5-day/3-hour
// forecast endpoints for a single city.
type OpenWeatherClient struct {
	BaseURL string
	APIKey  string
	CityID  string
	Units   Units
	HTTP    *http.Client
}

func NewOpenWeatherClient(apiKey, cityID string, units Units) *OpenWeatherClient {
	if units == "" {
		units = Imperial
	}
	return &OpenWeatherClient{BaseURL: DefaultBaseURL, APIKey: apiKey, CityID: cityID, Units: units, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type owCondition struct {
	ID   int    `json:"id"`
	Main string `json:"main"`
	Icon string `json:"icon"`
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
}

type owWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type owCurrent struct {
	Name    string        `json:"name"`
	Main    owMain        `json:"main"`
	Wind    owWind        `json:"wind"`
	Weather []owCondition `json:"weather"`
}

type owForecast struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []struct {
		Dt      int64         `json:"dt"`
		Main    owMain        `json:"main"`
		Wind    owWind        `json:"wind"`
		Weather []owCondition `json:"weather"`
	} `json:"list"`
}

func (c *OpenWeatherClient) Current(ctx context.Context) (Current, error) {
	var resp owCurrent
	if err := c.get(ctx, "/data/2.5/weather", &resp); err != nil {
		return Current{}, err
	}
	if len(resp.Weather) == 0 {
		return Current{}, fmt.Errorf("openweather current: no condition in response")
	}
	return Current{
		Locale:      resp.Name,
		Temp:        resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		WindDeg:     resp.Wind.Deg,
		ConditionID: resp.Weather[0].ID,
		Condition:   resp.Weather[0].Main,
		Icon:        resp.Weather[0].Icon,
	}, nil
}

func (c *OpenWeatherClient) Forecast(ctx context.Context) (Forecast, error) {
	var resp owForecast
	if err := c.get(ctx, "/data/2.5/forecast", &resp); err != nil {
		return Forecast{}, err
	}
	out := Forecast{Locale: resp.City.Name}
	for _, item := range resp.List {
		if len(item.Weather) == 0 {
			continue
		}
		out.Points = append(out.Points, Point{
			Time:          time.Unix(item.Dt, 0),
			Temp:          item.Main.Temp,
			WindSpeed:     item.Wind.Speed,
			ConditionID:   item.Weather[0].ID,
			ConditionName: item.Weather[0].Main,
			Icon:          item.Weather[0].Icon,
		})
	}
	return out, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, path string, into interface{}) error {
	q := url.Values{}
	q.Set("id", c.CityID)
	q.Set("APPID", c.APIKey)
	q.Set("units", string(c.Units))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openweather %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("openweather %s: status %d: %s", path, res.StatusCode, body)
	}
	if err := json.NewDecoder(res.Body).Decode(into); err != nil {
		return fmt.Errorf("openweather %s: decode: %w", path, err)
	}
	return nil
}
