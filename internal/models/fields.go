package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JSON-backed column types. Array and map valued document fields are stored
// as serialized JSON text so the same models work on Postgres in production
// and the in-memory SQLite harness in tests.

// StringList is a set of identifiers stored as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// Contains reports membership of id in the list.
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy.
func (l StringList) Sorted() StringList {
	out := make(StringList, len(l))
	copy(out, l)
	sort.Strings(out)
	return out
}

// LikeToken returns the pattern used for containment filters on JSON array
// columns. The quoted form makes the match exact for identifier tokens.
func LikeToken(id string) string {
	return "%" + `"` + strings.ReplaceAll(id, `"`, ``) + `"` + "%"
}

// CountMap holds per-member unread counters, stored as a JSON object column.
type CountMap map[string]int

func (m CountMap) Value() (driver.Value, error) {
	if m == nil {
		m = CountMap{}
	}
	return json.Marshal(m)
}

func (m *CountMap) Scan(value interface{}) error {
	if value == nil {
		*m = CountMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for CountMap", value)
	}
}

// TeamMember is one entry of the roster captured at sign-up.
type TeamMember struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TeamMemberList is stored as a JSON array column.
type TeamMemberList []TeamMember

func (l TeamMemberList) Value() (driver.Value, error) {
	if l == nil {
		l = TeamMemberList{}
	}
	return json.Marshal(l)
}

func (l *TeamMemberList) Scan(value interface{}) error {
	if value == nil {
		*l = TeamMemberList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for TeamMemberList", value)
	}
}

// MemberDetail is a display projection of one group member, resolved from
// the user directory when the group is created. Deliberately a snapshot:
// later profile changes do not flow back into it.
type MemberDetail struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// MemberDetailList is stored as a JSON array column.
type MemberDetailList []MemberDetail

func (l MemberDetailList) Value() (driver.Value, error) {
	if l == nil {
		l = MemberDetailList{}
	}
	return json.Marshal(l)
}

func (l *MemberDetailList) Scan(value interface{}) error {
	if value == nil {
		*l = MemberDetailList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for MemberDetailList", value)
	}
}
