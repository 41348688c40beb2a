package ziparchive

import "time"

// dosDateTime packs t, in local time, into the MS-DOS date and time
// fields used by zip headers. Seconds are stored halved, and years
// outside 1980-2107 wrap through the 7-bit year mask.
func dosDateTime(t time.Time) (date, clock uint16) {
	t = t.Local()

	clock = uint16((t.Hour()&0x1f)<<11 | (t.Minute()&0x3f)<<5 | (t.Second()/2)&0x1f)
	date = uint16(((t.Year()-1980)&0x7f)<<9 | (int(t.Month())&0x0f)<<5 | t.Day()&0x1f)
	return date, clock
}

// dosTimeToTime unpacks MS-DOS date and time fields in local time.
func dosTimeToTime(date, clock uint16) time.Time {
	return time.Date(
		int(date>>9)+1980,
		time.Month(date>>5&0x0f),
		int(date&0x1f),
		int(clock>>11),
		int(clock>>5&0x3f),
		int(clock&0x1f)*2,
		0,
		time.Local,
	)
}
