package services

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const (
	propertyIDPrefix  = "PROP-"
	propertyIDRandLen = 8
	base36Alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewPropertyID returns PROP- followed by the base36 millisecond timestamp and
// eight random base36 characters, upper-cased.
func NewPropertyID() string {
	return newPropertyIDAt(time.Now())
}

func newPropertyIDAt(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	buf := make([]byte, propertyIDRandLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic("property id entropy: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	return propertyIDPrefix + ts + string(buf)
}
