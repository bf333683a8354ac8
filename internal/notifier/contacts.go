package notifier

import (
	"context"
	"strings"

	"github.com/smanilla/mindtrack/internal/models"

	"go.uber.org/zap"
)

// UserLookup read access to user records
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Contacts resolved alert targets, in first-seen order
type Contacts struct {
	Phones []models.ResolvedContact `json:"phones"`
	Emails []models.ResolvedContact `json:"emails"`
}

// Resolver collects alert targets for a patient: assigned doctor first, then
// emergency contacts, then caller-supplied extra emails.
type Resolver struct {
	users  UserLookup
	logger *zap.Logger
}

func NewResolver(users UserLookup, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// NormalizePhone strips spaces, dashes and parentheses; it is the phone dedup key.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

// Resolve never fails; a doctor that cannot be loaded is logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, patient *models.User, extraEmails []string) Contacts {
	b := newContactSet()
	if patient == nil {
		return b.contacts()
	}

	if patient.DoctorID != "" && r.users != nil {
		doctor, err := r.users.GetUser(ctx, patient.DoctorID)
		if err != nil {
			r.logger.Warn("Failed to load assigned doctor for alert",
				zap.String("patient_id", patient.ID),
				zap.String("doctor_id", patient.DoctorID),
				zap.Error(err),
			)
		} else if doctor != nil {
			name := defaultString(doctor.Name, "Doctor")
			b.addPhone(doctor.Phone, name, models.ContactDoctor, "")
			b.addEmail(doctor.Email, name, models.ContactDoctor, "")
		}
	}

	for _, c := range patient.EmergencyContacts {
		name := defaultString(c.Name, "Emergency Contact")
		b.addPhone(c.Phone, name, models.ContactEmergencyContact, c.Relationship)
		b.addEmail(c.Email, name, models.ContactEmergencyContact, c.Relationship)
	}

	for _, e := range extraEmails {
		b.addEmail(e, "Extra Contact", models.ContactExtra, "")
	}

	return b.contacts()
}

// contactSet ordered, deduplicated accumulator
type contactSet struct {
	phones     []models.ResolvedContact
	emails     []models.ResolvedContact
	seenPhones map[string]struct{}
	seenEmails map[string]struct{}
}

func newContactSet() *contactSet {
	return &contactSet{
		phones:     []models.ResolvedContact{},
		emails:     []models.ResolvedContact{},
		seenPhones: map[string]struct{}{},
		seenEmails: map[string]struct{}{},
	}
}

func (s *contactSet) addPhone(phone, name, kind, relationship string) {
	key := NormalizePhone(phone)
	if key == "" {
		return
	}
	if _, ok := s.seenPhones[key]; ok {
		return
	}
	s.seenPhones[key] = struct{}{}
	s.phones = append(s.phones, models.ResolvedContact{
		Phone:        strings.TrimSpace(phone),
		Name:         name,
		Type:         kind,
		Relationship: relationship,
	})
}

// addEmail keys on the trimmed address as given; case is preserved.
func (s *contactSet) addEmail(email, name, kind, relationship string) {
	key := strings.TrimSpace(email)
	if key == "" || !strings.Contains(key, "@") {
		return
	}
	if _, ok := s.seenEmails[key]; ok {
		return
	}
	s.seenEmails[key] = struct{}{}
	s.emails = append(s.emails, models.ResolvedContact{
		Email:        key,
		Name:         name,
		Type:         kind,
		Relationship: relationship,
	})
}

func (s *contactSet) contacts() Contacts {
	return Contacts{Phones: s.phones, Emails: s.emails}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
