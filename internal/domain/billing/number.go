package billing

import (
	"fmt"
	"time"
)

// BillNumberPrefix prefixes every generated bill number
const BillNumberPrefix = "B"

// DayKey formats a timestamp into the YYMMDD key used by the daily counter
func DayKey(t time.Time) string {
	return t.Format("060102")
}

// FormatBillNumber renders a bill number as <prefix><YYMMDD><seq>, with the
// sequence zero-padded to four digits. The sequence comes from the atomic
// per-restaurant-per-day counter; this function only formats it.
func FormatBillNumber(day string, seq int64) string {
	return fmt.Sprintf("%s%s%04d", BillNumberPrefix, day, seq)
}
