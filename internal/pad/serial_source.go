package pad

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

// serialSource reads samples from a microcontroller that streams one CSV
// frame per line: "gx,gy,gz,ax,ay,az" with gyro in deg/s and accel in G.
// Lines that do not parse are skipped, since partial frames at open time and
// debug prints from the firmware are normal.
type serialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
}

// NewSerialSource opens the serial port at the given baud rate and returns a
// line-oriented sample source.
func NewSerialSource(portName string, baudRate uint) (Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	return &serialSource{port: port, reader: bufio.NewReader(port)}, nil
}

func (s *serialSource) Next() (Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return Sample{}, fmt.Errorf("serial read: %w", err)
		}

		sample, ok := parseFrame(strings.TrimSpace(line))
		if !ok {
			continue
		}
		return sample, nil
	}
}

func (s *serialSource) Close() error {
	return s.port.Close()
}

// parseFrame decodes one "gx,gy,gz,ax,ay,az" line.
func parseFrame(line string) (Sample, bool) {
	if line == "" {
		return Sample{}, false
	}

	fields := strings.Split(line, ",")
	if len(fields) != 6 {
		return Sample{}, false
	}

	var vals [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Sample{}, false
		}
		vals[i] = v
	}

	return Sample{
		Gyro:  geom.Vec3{X: vals[0], Y: vals[1], Z: vals[2]},
		Accel: geom.Vec3{X: vals[3], Y: vals[4], Z: vals[5]},
	}, true
}
