package types

import "time"

// Meta carries the bookkeeping fields shared by every stored record.
// ID is assigned by the storage layer at creation and never changes.
// DeletedAt is the soft-delete tombstone: a non-nil value excludes the
// record from normal reads without destroying its data.
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// RecordMeta returns the record's bookkeeping fields for in-place update
// by the storage layer.
func (m *Meta) RecordMeta() *Meta { return m }

// Record is implemented by every entity struct through an embedded Meta.
type Record interface {
	RecordMeta() *Meta
}

// Patient is a person treated at the cabinet. Health data: always local.
type Patient struct {
	Meta
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	BirthDate time.Time `json:"birthDate,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsSmoker  bool      `json:"isSmoker"`
	Notes     string    `json:"notes,omitempty"`
}

// Appointment is a scheduled consultation slot.
type Appointment struct {
	Meta
	PatientID      int64     `json:"patientId"`
	PractitionerID int64     `json:"practitionerId"`
	Start          time.Time `json:"start"`
	DurationMin    int       `json:"durationMin"`
	Reason         string    `json:"reason,omitempty"`
	Status         string    `json:"status"`
}

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentDone      = "done"
	AppointmentCancelled = "cancelled"
)

// Invoice bills a patient for one or more consultations.
// Amounts are stored in cents to avoid floating-point drift.
type Invoice struct {
	Meta
	PatientID     int64      `json:"patientId"`
	AppointmentID int64      `json:"appointmentId,omitempty"`
	Number        string     `json:"number,omitempty"`
	Date          time.Time  `json:"date"`
	AmountCents   int64      `json:"amountCents"`
	Paid          bool       `json:"paid"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// Consultation records the clinical content of a visit.
type Consultation struct {
	Meta
	PatientID     int64     `json:"patientId"`
	AppointmentID int64     `json:"appointmentId,omitempty"`
	Date          time.Time `json:"date"`
	Summary       string    `json:"summary,omitempty"`
	Treatment     string    `json:"treatment,omitempty"`
}

// Document is an uploaded medical document attached to a patient.
// Only the file metadata lives in the store; the payload stays on disk.
type Document struct {
	Meta
	PatientID int64  `json:"patientId"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType,omitempty"`
	Path      string `json:"path,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// Quote is a treatment-plan estimate sent to a patient.
type Quote struct {
	Meta
	PatientID   int64     `json:"patientId"`
	Number      string    `json:"number,omitempty"`
	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amountCents"`
	Accepted    bool      `json:"accepted"`
}

// Treatment is one entry in a patient's treatment history.
type Treatment struct {
	Meta
	PatientID      int64     `json:"patientId"`
	ConsultationID int64     `json:"consultationId,omitempty"`
	Date           time.Time `json:"date"`
	Technique      string    `json:"technique,omitempty"`
	Region         string    `json:"region,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// Relationship links two patients (family, referrals).
type Relationship struct {
	Meta
	PatientID        int64  `json:"patientId"`
	RelatedPatientID int64  `json:"relatedPatientId"`
	Relation         string `json:"relation"`
}

// Practitioner is an osteopath account. No patient data: may live in the
// hosted service.
type Practitioner struct {
	Meta
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	RPPS      string `json:"rpps,omitempty"`
}

// Cabinet is the practice's identity and contact configuration.
type Cabinet struct {
	Meta
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	SIRET   string `json:"siret,omitempty"`
}

// BillingProfile is the billing configuration applied to invoices.
type BillingProfile struct {
	Meta
	CabinetID        int64   `json:"cabinetId"`
	Label            string  `json:"label"`
	VATRate          float64 `json:"vatRate"`
	PaymentTermsDays int     `json:"paymentTermsDays"`
	Currency         string  `json:"currency"`
}
