package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// DiscountType represents how a bill discount is interpreted
type DiscountType int

const (
	DiscountTypeNone       DiscountType = 0
	DiscountTypePercentage DiscountType = 1
	DiscountTypeFixed      DiscountType = 2
)

func (t DiscountType) String() string {
	names := [...]string{"NONE", "PERCENTAGE", "FIXED"}
	if int(t) < 0 || int(t) >= len(names) {
		return "NONE"
	}
	return names[t]
}

// ParseDiscountType normalizes client spellings to the canonical enum.
// Older clients send PERCENT and FLAT; both map onto the canonical values.
func ParseDiscountType(s string) DiscountType {
	switch s {
	case "PERCENTAGE", "PERCENT":
		return DiscountTypePercentage
	case "FIXED", "FLAT":
		return DiscountTypeFixed
	default:
		return DiscountTypeNone
	}
}

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = DiscountType(i)
		return nil
	}
	*t = ParseDiscountType(str)
	return nil
}

func (t DiscountType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	if value == nil {
		*t = DiscountTypeNone
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = DiscountType(v)
	case int:
		*t = DiscountType(v)
	}
	return nil
}
