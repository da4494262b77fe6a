package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserType represents portal roles.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeAdmin   UserType = "admin"
)

// ParseUserType accepts any casing of a known role.
func ParseUserType(s string) (UserType, error) {
	switch t := UserType(strings.ToLower(strings.TrimSpace(s))); t {
	case UserTypeStudent, UserTypeAdmin:
		return t, nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}

// Capability names a permission carried by a session token.
type Capability string

const (
	CapDaysWrite       Capability = "days:write"
	CapRecordingsWrite Capability = "recordings:write"
	CapStatsRead       Capability = "stats:read"
	CapProgressWrite   Capability = "progress:write"
)

// AdminCapabilities are granted to sessions issued for the shared admin secret or an admin login.
var AdminCapabilities = []Capability{CapDaysWrite, CapRecordingsWrite, CapStatsRead, CapProgressWrite}

// StudentCapabilities are granted to student logins.
var StudentCapabilities = []Capability{CapProgressWrite}

// CapabilitiesFor returns the default capability set of a role.
func CapabilitiesFor(t UserType) []Capability {
	if t == UserTypeAdmin {
		return append([]Capability(nil), AdminCapabilities...)
	}
	return append([]Capability(nil), StudentCapabilities...)
}

// ParseCapability validates a capability name.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.TrimSpace(s))
	for _, known := range AdminCapabilities {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// ContentType is what a student viewed on a training day.
type ContentType string

const (
	ContentTypePresentation ContentType = "presentation"
	ContentTypeRecording    ContentType = "recording"
)

// ParseContentType accepts any casing of a known content type.
func ParseContentType(s string) (ContentType, error) {
	switch t := ContentType(strings.ToLower(strings.TrimSpace(s))); t {
	case ContentTypePresentation, ContentTypeRecording:
		return t, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// JSON is a raw jsonb column.
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSON(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("types.JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// NewJSON encodes v into a JSON column value.
func NewJSON(v interface{}) (JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSON(data), nil
}

// Percent is a completion percentage stored as numeric(5,2).
type Percent decimal.Decimal

// NewPercent creates a Percent from an integer value.
func NewPercent(value int64) Percent {
	return Percent(decimal.NewFromInt(value))
}

// Add returns p + other, capped at 100.
func (p Percent) Add(other Percent) Percent {
	sum := decimal.Decimal(p).Add(decimal.Decimal(other))
	if hundred := decimal.NewFromInt(100); sum.GreaterThan(hundred) {
		sum = hundred
	}
	return Percent(sum)
}

// Float64 returns the float64 representation.
func (p Percent) Float64() float64 {
	return decimal.Decimal(p).InexactFloat64()
}

func (p Percent) String() string {
	return decimal.Decimal(p).StringFixed(2)
}

// Equal compares two percentages numerically.
func (p Percent) Equal(other Percent) bool {
	return decimal.Decimal(p).Equal(decimal.Decimal(other))
}

// Value implements driver.Valuer for database serialization.
func (p Percent) Value() (driver.Value, error) {
	return decimal.Decimal(p).Value()
}

// Scan implements sql.Scanner for database deserialization.
func (p *Percent) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*p = Percent(d)
	return nil
}

// MarshalJSON encodes the percentage as a JSON number.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(p).StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = Percent(d)
	return nil
}
