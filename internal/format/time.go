package format

import "time"

const (
	filetimeOffset = 116444736000000000 // FILETIME epoch (1601) to Unix epoch in 100ns units
	filetimeUnit   = 100
)

// FiletimeToTime converts a Windows FILETIME to a UTC time.Time. Values at or
// before the Unix epoch map to the Unix epoch.
func FiletimeToTime(v uint64) time.Time {
	if v <= filetimeOffset {
		return time.Unix(0, 0).UTC()
	}
	d := v - filetimeOffset
	sec := int64(d / 10_000_000)
	nsec := int64(d%10_000_000) * filetimeUnit
	return time.Unix(sec, nsec).UTC()
}

// TimeToFiletime converts t to a FILETIME. Times before 1970 clamp to the
// Unix epoch.
func TimeToFiletime(t time.Time) uint64 {
	ns := t.UnixNano()
	if ns < 0 {
		ns = 0
	}
	return uint64(ns)/filetimeUnit + filetimeOffset
}
