package mstime

import "time"

const (
	nanosecondsInMillisecond = int64(time.Millisecond / time.Nanosecond)
	millisecondsInSecond     = int64(time.Second / time.Millisecond)
)

// Now returns the current local time, reduced to millisecond precision.
// Block timestamps carry no finer resolution, so everything that feeds them
// goes through here.
func Now() time.Time {
	return ReduceToMillisecondPrecision(time.Now())
}

// UnixMilliseconds returns t as the number of milliseconds elapsed since
// January 1, 1970 UTC.
func UnixMilliseconds(t time.Time) int64 {
	return t.UnixNano() / nanosecondsInMillisecond
}

// UnixMillisecondsToTime converts a millisecond Unix timestamp back to a
// time.Time.
func UnixMillisecondsToTime(ms int64) time.Time {
	seconds := ms / millisecondsInSecond
	nanoseconds := (ms - seconds*millisecondsInSecond) * nanosecondsInMillisecond
	return time.Unix(seconds, nanoseconds)
}

// ReduceToMillisecondPrecision truncates t's sub-millisecond part.
func ReduceToMillisecondPrecision(t time.Time) time.Time {
	nanoseconds := int64(t.Nanosecond())
	millisecondPrecisionNanoseconds := (nanoseconds / nanosecondsInMillisecond) * nanosecondsInMillisecond
	return time.Unix(t.Unix(), millisecondPrecisionNanoseconds)
}
