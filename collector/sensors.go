package collector

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
)

// iioNamePattern matches the name file of every Industrial I/O device,
// which is where Linux exposes accelerometers, gyroscopes and the like.
const iioNamePattern = "/sys/bus/iio/devices/iio:device*/name"

// hwmonResolution is the granularity of hwmon temperature inputs
// (millidegrees Celsius).
const hwmonResolution = 0.001

const (
	minValidTemp = 0.0
	maxValidTemp = 150.0
)

// iioSensorTypes maps name substrings to sensor type labels. Checked in
// order, so more specific keys come first.
var iioSensorTypes = []struct {
	key   string
	label string
}{
	{"linear_accel", "Linear Acceleration"},
	{"gravity", "Gravity"},
	{"rotation", "Rotation Vector"},
	{"accel", "Accelerometer"},
	{"gyro", "Gyroscope"},
	{"magn", "Magnetometer"},
	{"compass", "Magnetometer"},
	{"orientation", "Orientation (Deprecated)"},
	{"prox", "Proximity"},
	{"als", "Light"},
	{"light", "Light"},
	{"illuminance", "Light"},
	{"press", "Pressure"},
	{"baro", "Pressure"},
	{"humid", "Relative Humidity"},
	{"temp", "Ambient Temperature"},
}

// Sensor name substrings identifying CPU and GPU thermal sensors.
var (
	cpuSensorKeys = []string{"cpu", "core", "package", "tctl", "tdie", "k10temp", "coretemp", "acpitz", "zenpower", "tsens"}
	gpuSensorKeys = []string{"gpu", "nvidia", "amdgpu", "radeon", "nouveau", "kgsl"}
)

// sensors lists IIO motion/environment sensors followed by thermal
// sensors. A failure in either source yields only the other's entries.
func (c *HardwareCollector) sensors(ctx context.Context) []models.SensorInfo {
	sensors := c.iioSensors()

	temps, err := c.temperatures(ctx)
	if err != nil {
		c.logger.Debug("Temperature sensors not available", zap.Error(err))
	}
	for _, t := range temps {
		if !isValidTemperature(t.Temperature) {
			continue
		}
		maxRange := t.Critical
		if maxRange <= 0 {
			maxRange = t.High
		}
		sensors = append(sensors, models.SensorInfo{
			Name:         t.SensorKey,
			Type:         temperatureType(strings.ToLower(t.SensorKey)),
			Vendor:       sensorVendor(t.SensorKey),
			MaximumRange: maxRange,
			Resolution:   hwmonResolution,
		})
	}

	if sensors == nil {
		sensors = []models.SensorInfo{}
	}
	return sensors
}

func (c *HardwareCollector) iioSensors() []models.SensorInfo {
	paths, err := c.platform.Glob(iioNamePattern)
	if err != nil {
		return nil
	}

	var sensors []models.SensorInfo
	for _, path := range paths {
		data, err := c.platform.ReadFile(path)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(data))
		if name == "" {
			continue
		}
		sensors = append(sensors, models.SensorInfo{
			Name:       name,
			Type:       iioSensorType(name),
			Vendor:     sensorVendor(name),
			Resolution: c.iioScale(filepath.Dir(path)),
		})
	}
	return sensors
}

// iioScale returns the first channel scale of an IIO device, or 0.
func (c *HardwareCollector) iioScale(dir string) float64 {
	scales, err := c.platform.Glob(filepath.Join(dir, "in_*_scale"))
	if err != nil || len(scales) == 0 {
		return 0
	}
	data, err := c.platform.ReadFile(scales[0])
	if err != nil {
		return 0
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0
	}
	return scale
}

// iioSensorType maps an IIO device name to a sensor type label.
func iioSensorType(name string) string {
	lower := strings.ToLower(name)
	for _, t := range iioSensorTypes {
		if strings.Contains(lower, t.key) {
			return t.label
		}
	}
	return "Unknown Type (" + name + ")"
}

func temperatureType(key string) string {
	switch {
	case matchesSensor(key, gpuSensorKeys):
		return "GPU Temperature"
	case matchesSensor(key, cpuSensorKeys):
		return "CPU Temperature"
	default:
		return "Temperature"
	}
}

// sensorVendor takes the driver prefix of names like "coretemp_core_0" or
// "bmi160_accel".
func sensorVendor(name string) string {
	if prefix, _, ok := strings.Cut(name, "_"); ok && prefix != "" {
		return prefix
	}
	return models.Unknown
}

func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

// isValidTemperature filters readings outside a plausible range; those are
// almost always sensor errors.
func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
