package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending          AppointmentStatus = "pending"
	AppointmentStatusConfirmed        AppointmentStatus = "confirmed"
	AppointmentStatusRescheduled      AppointmentStatus = "rescheduled"
	AppointmentStatusTransferred      AppointmentStatus = "transferred"
	AppointmentStatusUnreachable      AppointmentStatus = "unreachable"
	AppointmentStatusCalling          AppointmentStatus = "calling"
	AppointmentStatusHumanEscalation  AppointmentStatus = "human_escalation"
	AppointmentStatusFailedEscalation AppointmentStatus = "failed_escalation"
)

// Valid reports whether the status is one of the known values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusRescheduled, AppointmentStatusTransferred,
		AppointmentStatusUnreachable, AppointmentStatusCalling,
		AppointmentStatusHumanEscalation, AppointmentStatusFailedEscalation:
		return true
	}
	return false
}

// Terminal reports whether automation may no longer mutate the appointment.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusConfirmed, AppointmentStatusTransferred,
		AppointmentStatusFailedEscalation:
		return true
	}
	return false
}

// BloodGroup represents a patient blood group
type BloodGroup string

const (
	BloodGroupAPositive  BloodGroup = "A+"
	BloodGroupANegative  BloodGroup = "A-"
	BloodGroupBPositive  BloodGroup = "B+"
	BloodGroupBNegative  BloodGroup = "B-"
	BloodGroupABPositive BloodGroup = "AB+"
	BloodGroupABNegative BloodGroup = "AB-"
	BloodGroupOPositive  BloodGroup = "O+"
	BloodGroupONegative  BloodGroup = "O-"
)

// Valid reports whether the blood group is one of the eight known values.
func (b BloodGroup) Valid() bool {
	switch b {
	case BloodGroupAPositive, BloodGroupANegative, BloodGroupBPositive,
		BloodGroupBNegative, BloodGroupABPositive, BloodGroupABNegative,
		BloodGroupOPositive, BloodGroupONegative:
		return true
	}
	return false
}

// Genotype represents a patient haemoglobin genotype
type Genotype string

const (
	GenotypeAA Genotype = "AA"
	GenotypeAS Genotype = "AS"
	GenotypeSS Genotype = "SS"
	GenotypeAC Genotype = "AC"
	GenotypeSC Genotype = "SC"
)

// Valid reports whether the genotype is one of the five known values.
func (g Genotype) Valid() bool {
	switch g {
	case GenotypeAA, GenotypeAS, GenotypeSS, GenotypeAC, GenotypeSC:
		return true
	}
	return false
}

// ServiceType represents the category of care an appointment is for
type ServiceType string

const (
	ServiceTypeAntenatal      ServiceType = "antenatal"
	ServiceTypePostnatal      ServiceType = "postnatal"
	ServiceTypeImmunization   ServiceType = "immunization"
	ServiceTypeFamilyPlanning ServiceType = "family_planning"
	ServiceTypeGeneral        ServiceType = "general"
)

// Valid reports whether the service type is one of the known categories.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeAntenatal, ServiceTypePostnatal, ServiceTypeImmunization,
		ServiceTypeFamilyPlanning, ServiceTypeGeneral:
		return true
	}
	return false
}

// Appointment represents a scheduled maternal/child-health appointment
// together with its outreach state.
type Appointment struct {
	ID                    string      `json:"id" db:"id"`
	PatientID             string      `json:"patient_id" db:"patient_id"`
	PatientName           string      `json:"patient_name" db:"patient_name"`
	PatientPhone          string      `json:"patient_phone" db:"patient_phone"`
	EmergencyContactPhone string      `json:"emergency_contact_phone" db:"emergency_contact_phone"`
	PreferredLanguage     string      `json:"preferred_language" db:"preferred_language"`
	Age                   int         `json:"age" db:"age"`
	BloodGroup            BloodGroup  `json:"blood_group" db:"blood_group"`
	Genotype              Genotype    `json:"genotype" db:"genotype"`
	ServiceType           ServiceType `json:"service_type" db:"service_type"`
	Location              string      `json:"location" db:"location"`

	AppointmentDatetime time.Time         `json:"appointment_datetime" db:"appointment_datetime"`
	Status              AppointmentStatus `json:"status" db:"status"`

	PatientCallAttempts            int        `json:"patient_call_attempts" db:"patient_call_attempts"`
	HumanEscalationAttempts        int        `json:"human_escalation_attempts" db:"human_escalation_attempts"`
	LastCallID                     *string    `json:"last_call_id,omitempty" db:"last_call_id"`
	LastCallTimestamp              *time.Time `json:"last_call_timestamp,omitempty" db:"last_call_timestamp"`
	LastEscalationAttemptTimestamp *time.Time `json:"last_escalation_attempt_timestamp,omitempty" db:"last_escalation_attempt_timestamp"`

	// Volunteer snapshot captured at assignment time. A value copy rather
	// than a join so audit history survives later volunteer edits.
	AssignedVolunteerID *string        `json:"assigned_volunteer_id,omitempty" db:"assigned_volunteer_id"`
	VolunteerName       *string        `json:"volunteer_name,omitempty" db:"volunteer_name"`
	VolunteerPhone      *string        `json:"volunteer_phone,omitempty" db:"volunteer_phone"`
	VolunteerEmail      *string        `json:"volunteer_email,omitempty" db:"volunteer_email"`
	VolunteerRole       *VolunteerRole `json:"volunteer_role,omitempty" db:"volunteer_role"`

	HandledByAI bool      `json:"handled_by_ai" db:"handled_by_ai"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SnapshotVolunteer copies the volunteer's contact details onto the
// appointment.
func (a *Appointment) SnapshotVolunteer(v *Volunteer) {
	id := v.ID
	name := v.Name
	phone := v.Phone
	email := v.Email
	role := v.Role
	a.AssignedVolunteerID = &id
	a.VolunteerName = &name
	a.VolunteerPhone = &phone
	a.VolunteerEmail = &email
	a.VolunteerRole = &role
}
