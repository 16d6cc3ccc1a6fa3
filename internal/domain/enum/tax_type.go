package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TaxType represents the jurisdictional tax treatment configured for a restaurant.
// CGST_SGST splits the tax evenly into central and state components for
// intra-state sales; IGST carries the full tax for inter-state sales.
type TaxType int

const (
	TaxTypeNone      TaxType = 0
	TaxTypeCGSTSGST  TaxType = 1
	TaxTypeIGST      TaxType = 2
	TaxTypeInclusive TaxType = 3
)

func (t TaxType) String() string {
	names := [...]string{"NO_GST", "CGST_SGST", "IGST", "INCLUSIVE_GST"}
	if int(t) < 0 || int(t) >= len(names) {
		return "NO_GST"
	}
	return names[t]
}

// ParseTaxType maps a configuration string to the enum, defaulting to NO_GST
func ParseTaxType(s string) TaxType {
	switch s {
	case "CGST_SGST":
		return TaxTypeCGSTSGST
	case "IGST":
		return TaxTypeIGST
	case "INCLUSIVE_GST":
		return TaxTypeInclusive
	default:
		return TaxTypeNone
	}
}

func (t TaxType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TaxType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = TaxType(i)
		return nil
	}
	*t = ParseTaxType(str)
	return nil
}

func (t TaxType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxType) Scan(value interface{}) error {
	if value == nil {
		*t = TaxTypeNone
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TaxType(v)
	case int:
		*t = TaxType(v)
	}
	return nil
}
