// Package directory joins doctors, departments and their link records.
package directory

import "github.com/hackgods/clinic-booking/internal/content"

// Directory is an in-memory join built once per page load. The link table is
// not guaranteed unique; lookups resolve to the first matching link.
type Directory struct {
	links       []content.DirectionDoctor
	departments map[int]content.Direction
	doctors     map[int]content.Doctor
}

func New(departments []content.Direction, doctors []content.Doctor, links []content.DirectionDoctor) *Directory {
	d := &Directory{
		links:       links,
		departments: make(map[int]content.Direction, len(departments)),
		doctors:     make(map[int]content.Doctor, len(doctors)),
	}
	for _, dep := range departments {
		if _, seen := d.departments[dep.ID]; !seen {
			d.departments[dep.ID] = dep
		}
	}
	for _, doc := range doctors {
		if _, seen := d.doctors[doc.ID]; !seen {
			d.doctors[doc.ID] = doc
		}
	}
	return d
}

// DepartmentOf returns the department of the first link naming doctorID.
// An embedded department wins over the lookup table. ok is false when no
// link matches or the linked department cannot be resolved.
func (d *Directory) DepartmentOf(doctorID int) (content.Direction, bool) {
	for _, l := range d.links {
		if l.DoctorID != doctorID {
			continue
		}
		if l.Direction != nil {
			return *l.Direction, true
		}
		dep, ok := d.departments[l.DirectionID]
		return dep, ok
	}
	return content.Direction{}, false
}

// DoctorsOf lists the doctors linked to departmentID in link order. A doctor
// linked twice is listed once.
func (d *Directory) DoctorsOf(departmentID int) []content.Doctor {
	out := []content.Doctor{}
	seen := make(map[int]struct{})
	for _, l := range d.links {
		if l.DirectionID != departmentID {
			continue
		}
		if _, dup := seen[l.DoctorID]; dup {
			continue
		}

		var doc content.Doctor
		switch {
		case l.Doctor != nil:
			doc = *l.Doctor
		default:
			found, ok := d.doctors[l.DoctorID]
			if !ok {
				continue
			}
			doc = found
		}
		seen[l.DoctorID] = struct{}{}
		out = append(out, doc)
	}
	return out
}
