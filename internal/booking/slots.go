package booking

// Slot is one bookable half-hour label. Availability is fixed at build time;
// nothing reconciles it with real scheduling state.
type Slot struct {
	ID        int    `json:"id"`
	Label     string `json:"time"`
	Available bool   `json:"available"`
}

// afternoonStart separates the morning band from the afternoon band.
const afternoonStart = "13:00"

var defaultCatalog = []Slot{
	{ID: 1, Label: "09:00", Available: true},
	{ID: 2, Label: "09:30", Available: true},
	{ID: 3, Label: "10:00", Available: true},
	{ID: 4, Label: "10:30", Available: true},
	{ID: 5, Label: "11:00", Available: true},
	{ID: 6, Label: "11:30", Available: true},
	{ID: 7, Label: "12:00", Available: true},
	{ID: 8, Label: "12:30", Available: true},
	{ID: 9, Label: "14:00", Available: true},
	{ID: 10, Label: "14:30", Available: true},
	{ID: 11, Label: "15:00", Available: true},
	{ID: 12, Label: "15:30", Available: true},
	{ID: 13, Label: "16:00", Available: true},
	{ID: 14, Label: "16:30", Available: true},
	{ID: 15, Label: "17:00", Available: true},
}

// DefaultCatalog returns a copy of the clinic's slot catalog.
func DefaultCatalog() []Slot {
	return append([]Slot(nil), defaultCatalog...)
}

// Bands splits a catalog into morning and afternoon slots, preserving order.
func Bands(catalog []Slot) (morning, afternoon []Slot) {
	morning, afternoon = []Slot{}, []Slot{}
	for _, s := range catalog {
		if s.Label < afternoonStart {
			morning = append(morning, s)
		} else {
			afternoon = append(afternoon, s)
		}
	}
	return morning, afternoon
}

func lookupSlot(catalog []Slot, label string) (Slot, bool) {
	for _, s := range catalog {
		if s.Label == label {
			return s, true
		}
	}
	return Slot{}, false
}

// Picker holds at most one selected slot. Selecting overwrites; there is no
// toggling off.
type Picker struct {
	catalog  []Slot
	selected string
}

func NewPicker(catalog []Slot) *Picker {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Picker{catalog: catalog}
}

// Select makes label the selected slot. Unknown or unavailable labels are
// rejected and leave the selection unchanged.
func (p *Picker) Select(label string) error {
	s, ok := lookupSlot(p.catalog, label)
	if !ok {
		return ErrUnknownSlot
	}
	if !s.Available {
		return ErrSlotUnavailable
	}
	p.selected = s.Label
	return nil
}

func (p *Picker) IsSelected(label string) bool {
	return p.selected != "" && p.selected == label
}

func (p *Picker) Selected() string {
	return p.selected
}

func (p *Picker) reset() {
	p.selected = ""
}
