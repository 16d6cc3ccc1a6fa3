package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// SessionStatus represents the lifecycle stage of a dining session
type SessionStatus int

const (
	SessionStatusActive  SessionStatus = 0
	SessionStatusBilled  SessionStatus = 1
	SessionStatusExpired SessionStatus = 2
)

func (s SessionStatus) String() string {
	names := [...]string{"ACTIVE", "BILLED", "EXPIRED"}
	if int(s) < 0 || int(s) >= len(names) {
		return "ACTIVE"
	}
	return names[s]
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SessionStatus(i)
		return nil
	}
	switch str {
	case "ACTIVE":
		*s = SessionStatusActive
	case "BILLED":
		*s = SessionStatusBilled
	case "EXPIRED":
		*s = SessionStatusExpired
	}
	return nil
}

func (s SessionStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SessionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SessionStatusActive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = SessionStatus(v)
	case int:
		*s = SessionStatus(v)
	}
	return nil
}
