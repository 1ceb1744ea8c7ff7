package entities

import (
	"strings"
	"time"
)

// VolunteerRole represents a volunteer's escalation tier. Tiers are ordered;
// use Rank for comparisons rather than comparing the strings.
type VolunteerRole string

const (
	RoleVolunteer  VolunteerRole = "volunteer"
	RoleLocal      VolunteerRole = "local"
	RoleState      VolunteerRole = "state"
	RoleNational   VolunteerRole = "national"
	RoleSuperAdmin VolunteerRole = "super-admin"
)

var roleRanks = map[VolunteerRole]int{
	RoleVolunteer:  0,
	RoleLocal:      1,
	RoleState:      2,
	RoleNational:   3,
	RoleSuperAdmin: 4,
}

// Rank returns the position of the role in the escalation-tier ordering.
// Unknown roles rank below every known role.
func (r VolunteerRole) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the role is one of the known values.
func (r VolunteerRole) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// RoleForEscalationAttempt maps a 1-based escalation attempt number to the
// volunteer tier that should handle it: the first round goes to local
// volunteers, the second to state, everything after that to national.
func RoleForEscalationAttempt(attempt int) VolunteerRole {
	switch {
	case attempt <= 1:
		return RoleLocal
	case attempt == 2:
		return RoleState
	default:
		return RoleNational
	}
}

// Volunteer represents a human volunteer who receives escalated cases.
// Registration and authentication happen outside the outreach core; the
// credential is stored but never interpreted here.
type Volunteer struct {
	ID              string        `json:"id" db:"id"`
	Name            string        `json:"name" db:"name"`
	Email           string        `json:"email" db:"email"`
	Credential      string        `json:"-" db:"credential"`
	Phone           string        `json:"phone" db:"phone"`
	Role            VolunteerRole `json:"role" db:"role"`
	SpokenLanguages []string      `json:"spoken_languages" db:"spoken_languages"`
	Location        string        `json:"location" db:"location"`
	Active          bool          `json:"active" db:"active"`
	LastAssignedAt  *time.Time    `json:"last_assigned_at,omitempty" db:"last_assigned_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Speaks reports whether the volunteer lists the given language.
func (v *Volunteer) Speaks(language string) bool {
	for _, l := range v.SpokenLanguages {
		if strings.EqualFold(strings.TrimSpace(l), strings.TrimSpace(language)) {
			return true
		}
	}
	return false
}
