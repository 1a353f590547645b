package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultThermalZone is where the Raspberry Pi kernel reports the SoC
// temperature in millidegrees Celsius.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

const vcgencmd = "vcgencmd"

var ErrNoSensor = errors.New("no temperature sensor available")

// CPUTemperature reads a sysfs thermal zone and returns degrees Celsius.
func CPUTemperature(path string) (float64, error) {
	if path == "" {
		path = DefaultThermalZone
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return milli / 1000, nil
}

// VcgencmdTemperature asks the VideoCore firmware for the SoC temperature.
func VcgencmdTemperature(ctx context.Context, r Runner) (float64, error) {
	stdout, stderr, err := r.Run(ctx, vcgencmd, "measure_temp")
	if err != nil {
		return 0, fmt.Errorf("vcgencmd measure_temp failed: %v: %s", err, stderr)
	}
	return parseMeasureTemp(stdout)
}

// parseMeasureTemp parses "temp=48.3'C".
func parseMeasureTemp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, ok := strings.CutPrefix(s, "temp=")
	if !ok {
		return 0, fmt.Errorf("unexpected vcgencmd output %q", s)
	}
	v = strings.TrimSuffix(v, "'C")
	return strconv.ParseFloat(v, 64)
}

// TemperatureSensor returns a reader that tries the thermal zone first and
// falls back to vcgencmd when r is non-nil.
func TemperatureSensor(path string, r Runner) func() (float64, error) {
	return func() (float64, error) {
		c, err := CPUTemperature(path)
		if err == nil {
			return c, nil
		}
		if r == nil {
			return 0, fmt.Errorf("%w: %v", ErrNoSensor, err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		c, verr := VcgencmdTemperature(ctx, r)
		if verr != nil {
			return 0, fmt.Errorf("%w: %v; %v", ErrNoSensor, err, verr)
		}
		return c, nil
	}
}
