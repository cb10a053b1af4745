package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Availability represents the availability state for a domain.
type Availability int

const (
	// AvailabilityUnknown means the lookup failed for a reason other than
	// "not found"; the registration state could not be determined.
	AvailabilityUnknown   Availability = 0
	AvailabilityAvailable Availability = 1
	AvailabilityTaken     Availability = 2
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// ParseAvailability is the inverse of Availability.String.
func ParseAvailability(value string) (Availability, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "available":
		return AvailabilityAvailable, nil
	case "taken":
		return AvailabilityTaken, nil
	case "unknown", "":
		return AvailabilityUnknown, nil
	default:
		return AvailabilityUnknown, fmt.Errorf("unknown availability %q", value)
	}
}

func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Availability) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	parsed, err := ParseAvailability(value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Provenance captures metadata about how a check was resolved.
type Provenance struct {
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedAt     time.Time  `json:"resolved_at"`
	Source         string     `json:"source"`
	Server         string     `json:"server,omitempty"`
	FromCache      bool       `json:"from_cache"`
	CacheExpiresAt *time.Time `json:"cache_expires_at,omitempty"`
}

// DomainResult reports availability of a single domain.
type DomainResult struct {
	Domain     string       `json:"domain"`
	Extension  string       `json:"extension"`
	Available  Availability `json:"status"`
	Message    string       `json:"message,omitempty"`
	Provenance Provenance   `json:"provenance"`
}
