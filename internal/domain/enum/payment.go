package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentStatus represents how much of a bill has been settled
type PaymentStatus int

const (
	PaymentStatusPending   PaymentStatus = 0
	PaymentStatusPaid      PaymentStatus = 1
	PaymentStatusPartial   PaymentStatus = 2
	PaymentStatusCancelled PaymentStatus = 3
)

func (s PaymentStatus) String() string {
	names := [...]string{"PENDING", "PAID", "PARTIAL", "CANCELLED"}
	if int(s) < 0 || int(s) >= len(names) {
		return "PENDING"
	}
	return names[s]
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	switch str {
	case "PENDING":
		*s = PaymentStatusPending
	case "PAID":
		*s = PaymentStatusPaid
	case "PARTIAL":
		*s = PaymentStatusPartial
	case "CANCELLED":
		*s = PaymentStatusCancelled
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}

// PaymentMethod represents how a bill was paid
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodUPI   PaymentMethod = "UPI"
	PaymentMethodMixed PaymentMethod = "MIXED"
)

// Valid reports whether m is one of the accepted payment methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodMixed:
		return true
	}
	return false
}
