package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pad_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n"))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "mock", cfg.PadSource)
	assert.Equal(t, "auto", cfg.CalibrationMode)
	assert.Equal(t, 1.0, cfg.NominalGravity)
	assert.Equal(t, "pad/motion/state", cfg.TopicMotionState)
	assert.Equal(t, 4, cfg.SampleInterval)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, "./calibration/pad_calibration.json", cfg.CalibrationFile)
}

func TestLoadFullConfig(t *testing.T) {
	content := `
# Gamepad fusion config
MQTT_BROKER=tcp://broker:1883
MQTT_CLIENT_ID_PRODUCER=bench-producer

PAD_SOURCE=serial
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD_RATE=115200

CALIBRATION_MODE=manual
NOMINAL_GRAVITY=9.81
CALIBRATION_FILE=/var/lib/pad/cal.json
SAMPLE_INTERVAL=8
WEB_SERVER_PORT=9090
DISPLAY_UPDATE_INTERVAL=250
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "bench-producer", cfg.MQTTClientIDProducer)
	assert.Equal(t, "serial", cfg.PadSource)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, "manual", cfg.CalibrationMode)
	assert.Equal(t, 9.81, cfg.NominalGravity)
	assert.Equal(t, "/var/lib/pad/cal.json", cfg.CalibrationFile)
	assert.Equal(t, 8, cfg.SampleInterval)
	assert.Equal(t, 9090, cfg.WebServerPort)
	assert.Equal(t, 250, cfg.DisplayUpdateInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"missing broker":       "PAD_SOURCE=mock\n",
		"unknown key":          "MQTT_BROKER=tcp://x:1883\nBOGUS_KEY=1\n",
		"malformed line":       "MQTT_BROKER=tcp://x:1883\nno equals sign here\n",
		"bad source":           "MQTT_BROKER=tcp://x:1883\nPAD_SOURCE=bluetooth\n",
		"bad mode":             "MQTT_BROKER=tcp://x:1883\nCALIBRATION_MODE=sometimes\n",
		"negative gravity":     "MQTT_BROKER=tcp://x:1883\nNOMINAL_GRAVITY=-1\n",
		"zero interval":        "MQTT_BROKER=tcp://x:1883\nSAMPLE_INTERVAL=0\n",
		"accel range too high": "MQTT_BROKER=tcp://x:1883\nIMU_ACCEL_RANGE=4\n",
		"serial without port":  "MQTT_BROKER=tcp://x:1883\nPAD_SOURCE=serial\nSERIAL_BAUD_RATE=115200\n",
		"imu without device":   "MQTT_BROKER=tcp://x:1883\nPAD_SOURCE=imu\nIMU_CS_PIN=GPIO25\n",
	}
	for name, content := range cases {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err, "case %q", name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
