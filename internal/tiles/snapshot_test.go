package tiles

import (
	"bytes"
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/weather"
)

// rendersOneRecord renders tile repeatedly while flip keeps refreshing it
// between two records, and fails if any render matches neither reference.
func rendersOneRecord(t *testing.T, tile Tile, refs [2]*image.RGBA, flip func(i int)) {
	t.Helper()
	if bytes.Equal(refs[0].Pix, refs[1].Pix) {
		t.Fatalf("reference renders are identical")
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			flip(i)
		}
	}()
	mixed := 0
	const renders = 300
	for i := 0; i < renders; i++ {
		img := tile.RenderLarge()
		if !bytes.Equal(img.Pix, refs[0].Pix) && !bytes.Equal(img.Pix, refs[1].Pix) {
			mixed++
		}
	}
	close(stop)
	wg.Wait()
	if mixed > 0 {
		t.Fatalf("%d of %d renders combined two refreshes", mixed, renders)
	}
}

func TestWeatherCurrentRenderReadsOneRefresh(t *testing.T) {
	records := [2]weather.Current{
		{Locale: "Alpha", Temp: 10, FeelsLike: 5, Humidity: 20, WindSpeed: 1, WindDeg: 0, Condition: "Clear", Icon: "01d"},
		{Locale: "Bravo", Temp: 90, FeelsLike: 95, Humidity: 80, WindSpeed: 30, WindDeg: 180, Condition: "Rain", Icon: "10d"},
	}
	client := &fakeWeather{}
	deps := testDeps()
	deps.Weather = client
	tile, err := NewWeatherCurrentTile(config.Tile{Name: "wx"}, deps)
	if err != nil {
		t.Fatalf("NewWeatherCurrentTile: %v", err)
	}
	use := func(i int) {
		client.mu.Lock()
		client.current = records[i%2]
		client.mu.Unlock()
		if err := tile.Refresh(context.Background()); err != nil {
			t.Errorf("Refresh: %v", err)
		}
	}
	var refs [2]*image.RGBA
	for i := range refs {
		use(i)
		refs[i] = tile.RenderLarge()
	}
	rendersOneRecord(t, tile, refs, use)
}

func TestRandomPostRenderReadsOneRefresh(t *testing.T) {
	posts := [2]feed.Post{
		{ID: "1", Handle: "alpha", DisplayName: "Alpha", AvatarURL: "https://x/a.png", Text: "first anvil", CreatedAt: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)},
		{ID: "2", Handle: "bravo", Text: "second forge", CreatedAt: time.Date(2024, 5, 9, 18, 30, 0, 0, time.UTC)},
	}
	client := &fakeFeed{posts: map[string][]feed.Post{}}
	deps := testDeps()
	deps.Feed = client
	tile, err := NewRandomPostTile(config.Tile{Name: "feed", Searches: []string{"q"}}, deps)
	if err != nil {
		t.Fatalf("NewRandomPostTile: %v", err)
	}
	// Only the flipping goroutine touches client after the references.
	use := func(i int) {
		client.posts["q"] = []feed.Post{posts[i%2]}
		if err := tile.Refresh(context.Background()); err != nil {
			t.Errorf("Refresh: %v", err)
		}
	}
	var refs [2]*image.RGBA
	for i := range refs {
		use(i)
		refs[i] = tile.RenderLarge()
	}
	rendersOneRecord(t, tile, refs, use)
}

// overlapFeed records whether two searches ever ran at the same time.
type overlapFeed struct {
	inflight atomic.Int32
	overlaps atomic.Int32
}

func (f *overlapFeed) Search(ctx context.Context, query string, limit int) ([]feed.Post, error) {
	if f.inflight.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	defer f.inflight.Add(-1)
	time.Sleep(100 * time.Microsecond)
	return []feed.Post{{ID: query, Handle: "smith", Text: "post " + query}}, nil
}

func (f *overlapFeed) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestConcurrentRefreshesRunOneAtATime(t *testing.T) {
	client := &overlapFeed{}
	deps := testDeps()
	deps.Feed = client
	tile, err := NewRandomPostTile(config.Tile{Name: "feed", Searches: []string{"a", "b", "c"}}, deps)
	if err != nil {
		t.Fatalf("NewRandomPostTile: %v", err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if err := tile.Refresh(context.Background()); err != nil {
					t.Errorf("Refresh: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if n := client.overlaps.Load(); n != 0 {
		t.Fatalf("%d refreshes overlapped", n)
	}
	if st := tile.Status(); st.Stale || st.LastRefresh.IsZero() {
		t.Fatalf("status = %+v", st)
	}
}

func TestWeatherForecastFirstLabelFollowsClock(t *testing.T) {
	clock := time.Date(2024, 5, 10, 11, 50, 0, 0, time.UTC)
	var pts []weather.Point
	for d := 0; d <= 4; d++ {
		at := time.Date(2024, 5, 10+d, 15, 0, 0, 0, time.UTC)
		pts = append(pts, weather.Point{Time: at, Temp: 60, WindSpeed: 3, ConditionID: 800, ConditionName: "Clear", Icon: "01d"})
	}
	deps := testDeps()
	deps.Now = func() time.Time { return clock }
	deps.Weather = &fakeWeather{forecast: weather.Forecast{Locale: "Springfield", Points: pts}}
	tile, err := NewWeatherForecastTile(config.Tile{Name: "fc"}, deps)
	if err != nil {
		t.Fatalf("NewWeatherForecastTile: %v", err)
	}
	if err := tile.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := tile.Columns()[0].Label; got != "Today" {
		t.Fatalf("label before noon = %q", got)
	}
	clock = clock.Add(20 * time.Minute)
	cols := tile.Columns()
	if cols[0].Label != "Tonight" {
		t.Fatalf("label after noon without refresh = %q", cols[0].Label)
	}
	if cols[1].Label != "Tomorrow" {
		t.Fatalf("second label = %q", cols[1].Label)
	}
}
