package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tashkent = time.FixedZone("UZT", 5*60*60)

func testRules(today time.Time) Rules {
	return Rules{Today: today, WindowDays: 30, Slots: DefaultCatalog()}
}

func validDraft(today time.Time) Draft {
	return Draft{
		FullName:        "Aziza Karimova",
		PhoneNumber:     "+998 90 123 45 67",
		AppointmentDate: today.AddDate(0, 0, 5).Format(DateLayout),
		AppointmentTime: "10:00",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	return verr.Fields
}

func TestDraftValidateAcceptsValidDraft(t *testing.T) {
	today := time.Date(2026, 10, 16, 15, 0, 0, 0, tashkent)
	assert.NoError(t, validDraft(today).Validate(testRules(today)))
}

func TestDraftValidateRequiredFields(t *testing.T) {
	today := time.Date(2026, 10, 16, 15, 0, 0, 0, tashkent)

	fields := fieldsOf(t, Draft{}.Validate(testRules(today)))
	assert.Equal(t, map[string]string{
		FieldFullName:        ReasonRequired,
		FieldPhoneNumber:     ReasonRequired,
		FieldAppointmentDate: ReasonRequired,
		FieldAppointmentTime: ReasonRequired,
	}, fields)

	d := validDraft(today)
	d.FullName = "   "
	fields = fieldsOf(t, d.Validate(testRules(today)))
	assert.Equal(t, ReasonRequired, fields[FieldFullName])

	d = validDraft(today)
	d.PhoneNumber = "+ ( ) -"
	fields = fieldsOf(t, d.Validate(testRules(today)))
	assert.Equal(t, ReasonInvalid, fields[FieldPhoneNumber])
}

func TestDraftValidateDateWindow(t *testing.T) {
	today := time.Date(2026, 10, 16, 23, 30, 0, 0, tashkent)
	rules := testRules(today)

	tests := []struct {
		name   string
		date   string
		reason string
	}{
		{"today", "2026-10-16", ""},
		{"last day of window", "2026-11-15", ""},
		{"yesterday", "2026-10-15", ReasonOutOfRange},
		{"past window", "2026-11-16", ReasonOutOfRange},
		{"not a date", "16.10.2026", ReasonInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft(today)
			d.AppointmentDate = tt.date
			err := d.Validate(rules)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.reason, fieldsOf(t, err)[FieldAppointmentDate])
		})
	}
}

func TestDraftValidateSlotAndDepartment(t *testing.T) {
	today := time.Date(2026, 10, 16, 9, 0, 0, 0, tashkent)
	rules := testRules(today)

	d := validDraft(today)
	d.AppointmentTime = "13:00"
	assert.Equal(t, ReasonInvalid, fieldsOf(t, d.Validate(rules))[FieldAppointmentTime])

	rules.RequireDepartment = true
	d = validDraft(today)
	assert.Equal(t, ReasonRequired, fieldsOf(t, d.Validate(rules))[FieldDepartment])

	rules.Departments = []string{"Kardiologiya", "Nevrologiya"}
	d.Department = "Stomatologiya"
	assert.Equal(t, ReasonNotListed, fieldsOf(t, d.Validate(rules))[FieldDepartment])

	d.Department = "Nevrologiya"
	assert.NoError(t, d.Validate(rules))

	rules.Departments = nil
	d.Department = "Stomatologiya"
	assert.NoError(t, d.Validate(rules), "membership is only checked against a loaded list")
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		FieldPhoneNumber: ReasonRequired,
		FieldFullName:    ReasonRequired,
	}}
	assert.Equal(t, "invalid booking draft: full_name=required, phone_number=required", err.Error())
}
