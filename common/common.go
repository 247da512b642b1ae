package common

import (
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// StringToUint32 is a helper function as many times I need to do this conversion.
// AS numbers printed by bird are always 32 bit.
func StringToUint32(s string) (uint32, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("can't convert %q to uint32: %w", s, err)
	}
	return uint32(val), nil
}

// StringToUint64 converts route counters, which can get large on full tables.
func StringToUint64(s string) (uint64, error) {
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("can't convert %q to uint64: %w", s, err)
	}
	return val, nil
}

// StringToFloat64 converts timer values such as 13.858.
func StringToFloat64(s string) (float64, error) {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("can't convert %q to float64: %w", s, err)
	}
	return val, nil
}

// TimeFunction logs total time to execute a function.
// Use as defer TimeFunction(time.Now(), "name", logger).
func TimeFunction(start time.Time, name string, l log.FieldLogger) {
	if l == nil {
		l = log.StandardLogger()
	}
	l.WithField("took", time.Since(start)).Debugf("%s finished", name)
}
