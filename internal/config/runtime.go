package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LogDir is paths.logs resolved next to the binary; relative paths are
// anchored there so the service logs to the same place whatever its cwd.
func (c *AppConfig) LogDir() string {
	dir := strings.TrimSpace(c.Paths.Logs)
	if dir == "" {
		dir = "logs"
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(binaryDir(), dir)
}

func binaryDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Location resolves the timezone setting. Besides IANA names a fixed
// "+hh:mm" / "-hh:mm" offset is accepted. An empty setting keeps time.Local.
func (c *AppConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if offset, ok := parseOffset(tz); ok {
		return time.FixedZone(tz, offset), nil
	}
	return nil, fmt.Errorf("invalid timezone %q: expect IANA zone (e.g. America/Chicago) or UTC offset (e.g. -06:00)", tz)
}

func parseOffset(tz string) (int, bool) {
	if len(tz) != 6 || tz[3] != ':' {
		return 0, false
	}
	sign := 1
	switch tz[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}
	h, errH := strconv.Atoi(tz[1:3])
	m, errM := strconv.Atoi(tz[4:6])
	if errH != nil || errM != nil || h > 23 || m > 59 {
		return 0, false
	}
	return sign * (h*3600 + m*60), true
}
