package event

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"weathercal/internal/weather"
)

// UIDSuffix is the namespace marker: calendar objects whose UID ends
// with it are owned by this tool and safe to manage; everything else
// on the calendar is foreign data and is never touched.
const UIDSuffix = "@weather-calendar"

// UID derives the stable identity for a date. It depends only on the
// date, never on weather content, so re-running the sync for the same
// day overwrites instead of duplicating. md5 here is an identity hash
// kept for wire compatibility with entries created by earlier
// deployments, not a security boundary.
func UID(d weather.Date) string {
	sum := md5.Sum([]byte("weather-" + d.String()))
	return hex.EncodeToString(sum[:]) + UIDSuffix
}

// Owned reports whether a remote object's UID carries the namespace
// marker.
func Owned(uid string) bool {
	return strings.HasSuffix(uid, UIDSuffix)
}
