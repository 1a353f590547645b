package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/DanCrank/shopclock/internal/assets"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given; it may be absent.
const DefaultPath = "shopclock-config.yaml"

// EnvPrefix prefixes environment overrides, e.g. SHOPCLOCK_LISTEN.
const EnvPrefix = "SHOPCLOCK"

var ErrInvalid = errors.New("invalid configuration")

// Tile is one entry of the tiles list. Fields that do not apply to a tile
// type are ignored by it.
type Tile struct {
	Type            string   `mapstructure:"type" yaml:"type"`
	Name            string   `mapstructure:"name" yaml:"name,omitempty"`
	Text            string   `mapstructure:"text" yaml:"text,omitempty"`
	TextColor       string   `mapstructure:"textColor" yaml:"textColor,omitempty"`
	BackgroundColor string   `mapstructure:"backgroundColor" yaml:"backgroundColor,omitempty"`
	BackgroundImage string   `mapstructure:"backgroundImage" yaml:"backgroundImage,omitempty"`
	Font            string   `mapstructure:"font" yaml:"font,omitempty"`
	FontSize        int      `mapstructure:"fontSize" yaml:"fontSize,omitempty"`
	SmallFontSize   int      `mapstructure:"smallFontSize" yaml:"smallFontSize,omitempty"`
	IconSize        int      `mapstructure:"iconSize" yaml:"iconSize,omitempty"`
	Title           string   `mapstructure:"title" yaml:"title,omitempty"`
	Freshness       int      `mapstructure:"freshness" yaml:"freshness,omitempty"`
	Query           string   `mapstructure:"query" yaml:"query,omitempty"`
	Searches        []string `mapstructure:"searches" yaml:"searches,omitempty"`
	Payload         string   `mapstructure:"payload" yaml:"payload,omitempty"`
}

type Config struct {
	LogLevel string `mapstructure:"logLevel" yaml:"logLevel"`

	ScreenWidth      int    `mapstructure:"screenWidth" yaml:"screenWidth"`
	TileSizeSmall    int    `mapstructure:"tileSizeSmall" yaml:"tileSizeSmall"`
	TileSizeLarge    int    `mapstructure:"tileSizeLarge" yaml:"tileSizeLarge"`
	TopBandHeight    int    `mapstructure:"topBandHeight" yaml:"topBandHeight"`
	BottomBandHeight int    `mapstructure:"bottomBandHeight" yaml:"bottomBandHeight"`
	BackgroundColor  string `mapstructure:"backgroundColor" yaml:"backgroundColor"`

	TimeDateFont            string `mapstructure:"timeDateFont" yaml:"timeDateFont"`
	TimeDateColor           string `mapstructure:"timeDateColor" yaml:"timeDateColor"`
	TimeDateBackgroundColor string `mapstructure:"timeDateBackgroundColor" yaml:"timeDateBackgroundColor"`
	TimeFormat              string `mapstructure:"timeFormat" yaml:"timeFormat"`
	DateFormat              string `mapstructure:"dateFormat" yaml:"dateFormat"`

	BottomBandText            string `mapstructure:"bottomBandText" yaml:"bottomBandText"`
	BottomBandColor           string `mapstructure:"bottomBandColor" yaml:"bottomBandColor"`
	BottomBandBackgroundColor string `mapstructure:"bottomBandBackgroundColor" yaml:"bottomBandBackgroundColor"`

	TileRefreshTime int `mapstructure:"tileRefreshTime" yaml:"tileRefreshTime"`
	AnimationSteps  int `mapstructure:"animationSteps" yaml:"animationSteps"`

	FontsDir  string `mapstructure:"fontsDir" yaml:"fontsDir"`
	ImagesDir string `mapstructure:"imagesDir" yaml:"imagesDir"`

	OpenWeatherCityID         string `mapstructure:"openWeatherCityID" yaml:"openWeatherCityID"`
	OpenWeatherAPIKey         string `mapstructure:"openWeatherAPIKey" yaml:"openWeatherAPIKey"`
	OpenWeatherUpdateInterval int    `mapstructure:"openWeatherUpdateInterval" yaml:"openWeatherUpdateInterval"`
	OpenWeatherUnits          string `mapstructure:"openWeatherUnits" yaml:"openWeatherUnits"`

	FeedBaseURL        string `mapstructure:"feedBaseURL" yaml:"feedBaseURL"`
	FeedAccessToken    string `mapstructure:"feedAccessToken" yaml:"feedAccessToken"`
	FeedUpdateInterval int    `mapstructure:"feedUpdateInterval" yaml:"feedUpdateInterval"`

	SensorPath           string `mapstructure:"sensorPath" yaml:"sensorPath"`
	SensorUpdateInterval int    `mapstructure:"sensorUpdateInterval" yaml:"sensorUpdateInterval"`

	Presenter         string `mapstructure:"presenter" yaml:"presenter"`
	FramebufferDevice string `mapstructure:"framebufferDevice" yaml:"framebufferDevice"`
	Listen            string `mapstructure:"listen" yaml:"listen"`
	DevMode           bool   `mapstructure:"devMode" yaml:"devMode"`

	Tiles []Tile `mapstructure:"tiles" yaml:"tiles"`

	// Path is the user file that was merged, if any.
	Path string `mapstructure:"-" yaml:"-"`
}

// Load reads the embedded defaults, merges the file at path over them and
// applies SHOPCLOCK_* environment overrides. A missing file is an error only
// when required is set.
func Load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(assets.DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	used := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			used = path
		} else if required || !os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Path = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks sizes, cadences and known enumerations. Malformed colors
// are not rejected; they render black.
func (c *Config) Validate() error {
	var problems []string
	positive := map[string]int{
		"screenWidth":   c.ScreenWidth,
		"tileSizeLarge": c.TileSizeLarge,
	}
	for k, v := range positive {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be > 0 (got %d)", k, v))
		}
	}
	nonNegative := map[string]int{
		"tileSizeSmall":    c.TileSizeSmall,
		"topBandHeight":    c.TopBandHeight,
		"bottomBandHeight": c.BottomBandHeight,
	}
	for k, v := range nonNegative {
		if v < 0 {
			problems = append(problems, fmt.Sprintf("%s must be >= 0 (got %d)", k, v))
		}
	}
	if c.AnimationSteps < 1 {
		problems = append(problems, fmt.Sprintf("animationSteps must be >= 1 (got %d)", c.AnimationSteps))
	}
	if c.TileRefreshTime < 1 {
		problems = append(problems, fmt.Sprintf("tileRefreshTime must be >= 1 (got %d)", c.TileRefreshTime))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error", "":
	default:
		problems = append(problems, fmt.Sprintf("logLevel must be debug, info or error (got %q)", c.LogLevel))
	}
	switch c.OpenWeatherUnits {
	case "imperial", "metric":
	default:
		problems = append(problems, fmt.Sprintf("openWeatherUnits must be imperial or metric (got %q)", c.OpenWeatherUnits))
	}
	switch c.Presenter {
	case "framebuffer", "sdl", "memory":
	default:
		problems = append(problems, fmt.Sprintf("presenter must be framebuffer, sdl or memory (got %q)", c.Presenter))
	}
	if len(c.Tiles) == 0 {
		problems = append(problems, "tiles must list at least one tile")
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// ValidColor reports whether s has the #RRGGBB form.
func ValidColor(s string) bool { return hexColor.MatchString(s) }

// ColorWarnings lists color settings that are not #RRGGBB and will
// therefore render black.
func (c *Config) ColorWarnings() []string {
	var out []string
	check := func(key, value string) {
		if value != "" && !ValidColor(value) {
			out = append(out, fmt.Sprintf("%s=%q", key, value))
		}
	}
	check("backgroundColor", c.BackgroundColor)
	check("timeDateColor", c.TimeDateColor)
	check("timeDateBackgroundColor", c.TimeDateBackgroundColor)
	check("bottomBandColor", c.BottomBandColor)
	check("bottomBandBackgroundColor", c.BottomBandBackgroundColor)
	for i, t := range c.Tiles {
		check(fmt.Sprintf("tiles[%d].textColor", i), t.TextColor)
		check(fmt.Sprintf("tiles[%d].backgroundColor", i), t.BackgroundColor)
	}
	return out
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) RotateInterval() time.Duration  { return seconds(c.TileRefreshTime) }
func (c *Config) WeatherInterval() time.Duration { return seconds(c.OpenWeatherUpdateInterval) }
func (c *Config) FeedInterval() time.Duration    { return seconds(c.FeedUpdateInterval) }
func (c *Config) SensorInterval() time.Duration  { return seconds(c.SensorUpdateInterval) }

// FrameSize is the canvas the carousel draws: at least as wide as the
// three-tile strip, and tall enough for the strip plus both bands.
func (c *Config) FrameSize() (width, height int) {
	width = c.ScreenWidth
	if strip := 2*c.TileSizeSmall + c.TileSizeLarge; width < strip {
		width = strip
	}
	return width, c.TopBandHeight + c.TileSizeLarge + c.BottomBandHeight
}
