package reporting

type SectionID string

const (
	SectionVehicle     SectionID = "vehicle"
	SectionClient      SectionID = "client"
	SectionInsurance   SectionID = "insurance"
	SectionDamages     SectionID = "damages"
	SectionAdjustments SectionID = "adjustments"
	SectionPhotos      SectionID = "photos"
)

type Section struct {
	ID     SectionID
	Number int
}

type sectionPresence struct {
	id      SectionID
	present bool
}

// numberSections keeps the present sections in order and numbers them from 1.
func numberSections(layout []sectionPresence) []Section {
	out := make([]Section, 0, len(layout))
	for _, s := range layout {
		if !s.present {
			continue
		}
		out = append(out, Section{ID: s.id, Number: len(out) + 1})
	}
	return out
}
