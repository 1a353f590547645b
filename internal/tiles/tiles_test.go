package tiles

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/weather"
)

const testSize = 300

type fakeWeather struct {
	mu       sync.Mutex
	current  weather.Current
	forecast weather.Forecast
	err      error
}

func (f *fakeWeather) Current(ctx context.Context) (weather.Current, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.err
}

func (f *fakeWeather) Forecast(ctx context.Context) (weather.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forecast, f.err
}

func (f *fakeWeather) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeFeed struct {
	posts map[string][]feed.Post
	err   error
}

func (f *fakeFeed) Search(ctx context.Context, query string, limit int) ([]feed.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[query], nil
}

func (f *fakeFeed) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Infof(string, string, ...interface{}) {}
func (l *recordingLogger) Errorf(component, format string, args ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, format)
	l.mu.Unlock()
}

var testFonts = render.NewFonts("")

func testDeps() Deps {
	return Deps{
		Size:   testSize,
		Fonts:  testFonts,
		Units:  weather.Imperial,
		Sensor: func() (float64, error) { return 48.7, nil },
		Now:    func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) },
		Rand:   rand.New(rand.NewSource(7)),
	}
}

func assertSquare(t *testing.T, img *image.RGBA) {
	t.Helper()
	if img == nil {
		t.Fatalf("render returned nil")
	}
	if b := img.Bounds(); b.Dx() != testSize || b.Dy() != testSize {
		t.Fatalf("render bounds = %v, want %dx%d", b, testSize, testSize)
	}
}

func hasRed(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 200 && c.G < 60 && c.B < 60 {
				return true
			}
		}
	}
	return false
}

func TestBuildSkipsUnknownTypes(t *testing.T) {
	log := &recordingLogger{}
	deps := testDeps()
	deps.Logger = log
	deps.Weather = &fakeWeather{}
	deps.Feed = &fakeFeed{}
	entries := []config.Tile{
		{Type: "Text", Text: "hello"},
		{Type: "Clock"},
		{Type: "CPUTemperature"},
		{Type: "RandomTweet", Searches: []string{"x"}},
		{Type: "QRCode", Payload: "https://example.com", Title: "Scan"},
	}
	built, err := Build(entries, deps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 4 {
		t.Fatalf("built %d tiles, want 4", len(built))
	}
	kinds := []Kind{KindText, KindCPUTemperature, KindRandomPost, KindQRCode}
	for i, k := range kinds {
		if built[i].Kind() != k {
			t.Fatalf("tile %d kind = %s, want %s", i, built[i].Kind(), k)
		}
		assertSquare(t, built[i].RenderLarge())
	}
	if len(log.errors) != 1 {
		t.Fatalf("expected one logged skip, got %v", log.errors)
	}
	if built[0].Name() != "Text#0" {
		t.Fatalf("default name = %s", built[0].Name())
	}
}

func TestBuildFailsOnBrokenKnownTile(t *testing.T) {
	_, err := Build([]config.Tile{{Type: "WeatherCurrent"}}, testDeps())
	if err == nil {
		t.Fatalf("expected error for weather tile without client")
	}
}

func TestTextTileSmallRender(t *testing.T) {
	tile, err := NewTextTile(config.Tile{Name: "t", Text: "Shop\nopen", SmallFontSize: 20}, testDeps())
	if err != nil {
		t.Fatalf("NewTextTile: %v", err)
	}
	small, ok := tile.RenderSmall(100)
	if !ok || small.Bounds().Dx() != 100 {
		t.Fatalf("RenderSmall = %v, %v", small.Bounds(), ok)
	}
	plain, _ := NewTextTile(config.Tile{Name: "p", Text: "x"}, testDeps())
	if _, ok := plain.RenderSmall(100); ok {
		t.Fatalf("tile without smallFontSize should not render small")
	}
}

func TestWeatherCurrentStaleKeepsLastGood(t *testing.T) {
	client := &fakeWeather{current: weather.Current{Locale: "Springfield", Temp: 72.4, FeelsLike: 70, Humidity: 55, WindSpeed: 8, WindDeg: 90, Condition: "Clouds", Icon: "04d"}}
	deps := testDeps()
	deps.Weather = client
	tile, err := NewWeatherCurrentTile(config.Tile{Name: "wx"}, deps)
	if err != nil {
		t.Fatalf("NewWeatherCurrentTile: %v", err)
	}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fresh := tile.RenderLarge()
	assertSquare(t, fresh)
	if hasRed(fresh, image.Rect(0, 0, 40, 40)) {
		t.Fatalf("fresh tile should not show the stale marker")
	}

	client.fail(errors.New("timeout"))
	if err := tile.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	st := tile.Status()
	if !st.Stale || st.LastError != "timeout" {
		t.Fatalf("status = %+v", st)
	}
	if got := tile.StatusText(); !strings.HasPrefix(got, "72 F and Clouds\n") || !strings.Contains(got, "Wind: E at 8 mph") {
		t.Fatalf("stale text lost last good values: %q", got)
	}
	if tile.Caption() != "Springfield Weather" {
		t.Fatalf("caption = %q", tile.Caption())
	}
	stale := tile.RenderLarge()
	assertSquare(t, stale)
	if !hasRed(stale, image.Rect(0, 0, 40, 40)) {
		t.Fatalf("stale tile should show the marker")
	}
}

func TestWeatherCurrentBeforeFirstRefresh(t *testing.T) {
	deps := testDeps()
	deps.Weather = &fakeWeather{err: errors.New("down")}
	tile, _ := NewWeatherCurrentTile(config.Tile{Name: "wx"}, deps)
	_ = tile.Refresh(context.Background())
	assertSquare(t, tile.RenderLarge())
	if !strings.Contains(tile.StatusText(), "Error") {
		t.Fatalf("placeholder condition missing: %q", tile.StatusText())
	}
}

func TestWeatherForecastOffset(t *testing.T) {
	now := time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC)
	var pts []weather.Point
	for d := 1; d <= 5; d++ {
		at := time.Date(2024, 5, 10+d, 12, 0, 0, 0, time.UTC)
		pts = append(pts, weather.Point{Time: at, Temp: float64(60 + d), WindSpeed: 3, ConditionID: 800, ConditionName: "Clear", Icon: "01n"})
	}
	deps := testDeps()
	deps.Now = func() time.Time { return now }
	deps.Weather = &fakeWeather{forecast: weather.Forecast{Locale: "Springfield", Points: pts}}
	tile, err := NewWeatherForecastTile(config.Tile{Name: "fc"}, deps)
	if err != nil {
		t.Fatalf("NewWeatherForecastTile: %v", err)
	}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	cols := tile.Columns()
	if cols[0].Label != "Tomorrow" || !strings.Contains(cols[0].Text, "High: 61 F") {
		t.Fatalf("first column = %+v", cols[0])
	}
	if cols[4].Label != "Wednesday" || cols[4].Icon != "01d" {
		t.Fatalf("last column = %+v", cols[4])
	}
	assertSquare(t, tile.RenderLarge())
}

func TestWeatherForecastEmptyRendersNA(t *testing.T) {
	deps := testDeps()
	deps.Weather = &fakeWeather{}
	tile, _ := NewWeatherForecastTile(config.Tile{Name: "fc"}, deps)
	for _, c := range tile.Columns() {
		if !strings.HasSuffix(c.Text, "N/A") {
			t.Fatalf("empty column text = %q", c.Text)
		}
	}
	assertSquare(t, tile.RenderLarge())
}

func TestRandomPostPlaceholderAndStale(t *testing.T) {
	client := &fakeFeed{posts: map[string][]feed.Post{}}
	deps := testDeps()
	deps.Feed = client
	tile, err := NewRandomPostTile(config.Tile{Name: "feed", Title: "Makers", Searches: []string{"a", "b"}}, deps)
	if err != nil {
		t.Fatalf("NewRandomPostTile: %v", err)
	}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("empty results should not be an error: %v", err)
	}
	if tile.Placeholder() != "Makers\n\n(Post not found)" || tile.Status().Stale {
		t.Fatalf("placeholder state wrong: %q %+v", tile.Placeholder(), tile.Status())
	}
	assertSquare(t, tile.RenderLarge())

	client.posts["b"] = []feed.Post{{ID: "1", Handle: "smith", DisplayName: "Smith", AvatarURL: "https://x/a.png", Text: "new anvil", CreatedAt: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)}}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !strings.HasPrefix(tile.Body(), "new anvil\n\n") {
		t.Fatalf("body = %q", tile.Body())
	}
	assertSquare(t, tile.RenderLarge())

	client.err = errors.New("503")
	if err := tile.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error when every query fails")
	}
	if !tile.Status().Stale || !strings.HasPrefix(tile.Body(), "new anvil") {
		t.Fatalf("failed refresh should keep the old post and go stale")
	}
}

func TestCPUTemperatureReading(t *testing.T) {
	deps := testDeps()
	tile, err := NewCPUTemperatureTile(config.Tile{Name: "cpu"}, deps)
	if err != nil {
		t.Fatalf("NewCPUTemperatureTile: %v", err)
	}
	if tile.Reading() != "-- C / -- F" {
		t.Fatalf("initial reading = %q", tile.Reading())
	}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tile.Reading() != "48 C / 118 F" {
		t.Fatalf("reading = %q", tile.Reading())
	}
	assertSquare(t, tile.RenderLarge())
}

type countingRefresher struct {
	mu sync.Mutex
	n  int
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return errors.New("always fails")
}

func (c *countingRefresher) RefreshInterval() time.Duration { return 5 * time.Millisecond }

func TestRefreshLoopRunsUntilCancel(t *testing.T) {
	r := &countingRefresher{}
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if err := RefreshLoop(ctx, "c", r, nil); err != nil {
		t.Fatalf("RefreshLoop: %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n < 2 {
		t.Fatalf("refreshed %d times", r.n)
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("RandomTweet"); !ok || k != KindRandomPost {
		t.Fatalf("alias not accepted")
	}
	if _, ok := ParseKind("Clock"); ok {
		t.Fatalf("unknown kind accepted")
	}
}

func TestQRCodeNeedsPayload(t *testing.T) {
	if _, err := NewQRCodeTile(config.Tile{Name: "qr"}, testDeps()); err == nil {
		t.Fatalf("expected error without payload")
	}
}

func TestRefreshAllAttemptsEveryTile(t *testing.T) {
	wx := &fakeWeather{err: errors.New("down")}
	deps := testDeps()
	deps.Weather = wx
	built, err := Build([]config.Tile{{Type: "Text", Text: "x"}, {Type: "CPUTemperature"}, {Type: "WeatherCurrent"}}, deps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := RefreshAll(context.Background(), built, nil); err == nil {
		t.Fatalf("expected weather failure")
	}
	cpu := built[1].(*CPUTemperatureTile)
	if cpu.Reading() == "-- C / -- F" {
		t.Fatalf("sensor tile was not refreshed")
	}
	if !built[2].(StatusReporter).Status().Stale {
		t.Fatalf("weather tile should be stale")
	}
}
