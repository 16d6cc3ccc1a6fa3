package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// BillStatus represents the lifecycle stage of a bill
type BillStatus int

const (
	BillStatusDraft     BillStatus = 0
	BillStatusFinalized BillStatus = 1
	BillStatusCancelled BillStatus = 2
)

func (s BillStatus) String() string {
	names := [...]string{"DRAFT", "FINALIZED", "CANCELLED"}
	if int(s) < 0 || int(s) >= len(names) {
		return "DRAFT"
	}
	return names[s]
}

// CanTransitionTo reports whether the state machine allows moving to next.
// DRAFT may finalize or cancel; FINALIZED and CANCELLED are terminal.
func (s BillStatus) CanTransitionTo(next BillStatus) bool {
	if s != BillStatusDraft {
		return false
	}
	return next == BillStatusFinalized || next == BillStatusCancelled
}

// IsTerminal reports whether no further status transitions are possible
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusFinalized || s == BillStatusCancelled
}

func (s BillStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BillStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = BillStatus(i)
		return nil
	}
	switch str {
	case "DRAFT":
		*s = BillStatusDraft
	case "FINALIZED":
		*s = BillStatusFinalized
	case "CANCELLED":
		*s = BillStatusCancelled
	}
	return nil
}

func (s BillStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *BillStatus) Scan(value interface{}) error {
	if value == nil {
		*s = BillStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = BillStatus(v)
	case int:
		*s = BillStatus(v)
	}
	return nil
}
