package reporting

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

const (
	DefaultReferencePrefix = "VWC"
	MaxPhotos              = 6
	defaultGarageName      = "Garage"
)

type Options struct {
	ReferencePrefix string
	Location        *time.Location
	Now             func() time.Time
	RandIntN        func(n int) int
}

func (o Options) normalize() Options {
	out := o
	if strings.TrimSpace(out.ReferencePrefix) == "" {
		out.ReferencePrefix = DefaultReferencePrefix
	}
	if out.Location == nil {
		out.Location = time.Local
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.RandIntN == nil {
		out.RandIntN = rand.IntN
	}
	return out
}

type GarageView struct {
	Name    HTML
	Address HTML
	Phone   HTML
	Email   HTML
	LogoURL HTML
}

type VehicleView struct {
	Brand   HTML
	Model   HTML
	Plate   HTML
	Year    HTML
	VIN     HTML
	Color   HTML
	Mileage HTML
}

type ClientView struct {
	Name  HTML
	Phone HTML
	Email HTML
}

type InsuranceView struct {
	Company      HTML
	ClaimNumber  HTML
	AccidentDate HTML
}

type DamageRow struct {
	Zone        HTML
	Description HTML
	Severity    Severity
	Hours       string
}

type PhotoView struct {
	URL   HTML
	Alt   HTML
	Label string
}

// ViewModel is the flattened, pre-escaped input of the renderer.
type ViewModel struct {
	Reference      string
	ReferenceHTML  HTML
	GeneratedAt    time.Time
	ReportDate     string
	GeneratedStamp string

	Garage    GarageView
	Vehicle   VehicleView
	Client    ClientView
	Insurance *InsuranceView

	Assessment      []DamageRow
	AssessmentTotal string

	Adjustments   []DamageRow
	AdjustedTotal string

	// Damages is the list retained for the claim: the expert overlay when it
	// is non-empty, the assessment otherwise. TotalHours belongs to it.
	Damages    []DamageRow
	TotalHours float64

	Photos     []PhotoView
	PhotoCount int

	Sections []Section
}

// Assemble normalizes a claim and its garage into a ViewModel. It performs no
// I/O; the clock and random source come from opts.
func Assemble(claim *domain.Claim, garage *domain.Garage, opts Options) ViewModel {
	opts = opts.normalize()
	now := opts.Now().In(opts.Location)

	if claim == nil {
		claim = &domain.Claim{}
	}

	reference := resolveReference(claim.Reference, now, opts)
	vm := ViewModel{
		Reference:      reference,
		ReferenceHTML:  Escape(reference),
		GeneratedAt:    now,
		ReportDate:     now.Format(dateLayout),
		GeneratedStamp: now.Format(timestampLayout),
		Garage:         garageView(garage),
		Vehicle: VehicleView{
			Brand:   orPlaceholder(Escape(claim.Vehicle.Brand), notProvided),
			Model:   orPlaceholder(Escape(claim.Vehicle.Model), notProvided),
			Plate:   orPlaceholder(Escape(claim.Vehicle.Plate), notProvided),
			Year:    orPlaceholder(formatYear(claim.Vehicle.Year.Float()), notProvided),
			VIN:     orPlaceholder(Escape(claim.Vehicle.VIN), notProvided),
			Color:   orPlaceholder(Escape(claim.Vehicle.Color), notProvided),
			Mileage: orPlaceholder(formatMileage(claim.Vehicle.Mileage.Float()), notProvided),
		},
		Client: ClientView{
			Name:  orPlaceholder(Escape(claim.Client.Name), notProvided),
			Phone: orPlaceholder(Escape(claim.Client.Phone), notProvided),
			Email: orPlaceholder(Escape(claim.Client.Email), notProvided),
		},
	}

	if strings.TrimSpace(claim.Insurance.Company) != "" {
		vm.Insurance = &InsuranceView{
			Company:      Escape(claim.Insurance.Company),
			ClaimNumber:  orPlaceholder(Escape(claim.Insurance.ClaimNumber), notProvided),
			AccidentDate: formatAccidentDate(claim.Insurance.AccidentDate, opts.Location),
		}
	}

	assessment := claim.AssessmentDamages()
	vm.Assessment = damageRows(assessment, "Description")
	vm.AssessmentTotal = formatHours(sumHours(assessment))

	adjusted := claim.AdjustedDamages()
	vm.Adjustments = damageRows(adjusted, "Ajustement")

	vm.Damages = vm.Assessment
	vm.TotalHours = sumHours(assessment)
	if len(adjusted) > 0 {
		vm.Damages = vm.Adjustments
		vm.TotalHours = sumHours(adjusted)
		if override := claim.ManualAdjustments.TotalHoursAdjusted.Float(); override > 0 {
			vm.TotalHours = override
		}
		vm.AdjustedTotal = formatHours(vm.TotalHours)
	}

	vm.PhotoCount = len(claim.Photos)
	vm.Photos = photoViews(claim.Photos)

	vm.Sections = numberSections([]sectionPresence{
		{id: SectionVehicle, present: true},
		{id: SectionClient, present: true},
		{id: SectionInsurance, present: vm.Insurance != nil},
		{id: SectionDamages, present: len(vm.Assessment) > 0},
		{id: SectionAdjustments, present: len(vm.Adjustments) > 0},
		{id: SectionPhotos, present: vm.PhotoCount > 0},
	})

	return vm
}

// SectionNumber returns the number assigned to a section, or 0 when absent.
func (vm ViewModel) SectionNumber(id SectionID) int {
	for _, s := range vm.Sections {
		if s.ID == id {
			return s.Number
		}
	}
	return 0
}

func resolveReference(stored string, now time.Time, opts Options) string {
	if ref := strings.TrimSpace(stored); ref != "" {
		return ref
	}
	// Not persisted: a claim without a stored reference gets a new one per report.
	return fmt.Sprintf("%s-%d-%06d", opts.ReferencePrefix, now.Year(), opts.RandIntN(999999))
}

func garageView(g *domain.Garage) GarageView {
	if g == nil {
		return GarageView{Name: defaultGarageName}
	}
	name := strings.TrimSpace(g.CompanyName)
	if name == "" {
		name = strings.TrimSpace(g.Name)
	}
	if name == "" {
		name = defaultGarageName
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{g.Address.Street, g.Address.Zip, g.Address.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return GarageView{
		Name:    Escape(name),
		Address: Escape(strings.Join(parts, ", ")),
		Phone:   Escape(strings.TrimSpace(g.Phone)),
		Email:   Escape(strings.TrimSpace(g.Email)),
		LogoURL: Escape(strings.TrimSpace(g.LogoURL)),
	}
}

func damageRows(damages []domain.Damage, defaultDescription HTML) []DamageRow {
	if len(damages) == 0 {
		return nil
	}
	rows := make([]DamageRow, 0, len(damages))
	for _, d := range damages {
		rows = append(rows, DamageRow{
			Zone:        orPlaceholder(Escape(d.Zone), "N/A"),
			Description: orPlaceholder(Escape(d.Description), defaultDescription),
			Severity:    ClassifySeverity(d.Severity),
			Hours:       formatHours(d.EstimatedHours.Float()),
		})
	}
	return rows
}

func sumHours(damages []domain.Damage) float64 {
	var total float64
	for _, d := range damages {
		total += d.EstimatedHours.Float()
	}
	return total
}

func photoViews(photos []domain.Photo) []PhotoView {
	n := min(len(photos), MaxPhotos)
	if n == 0 {
		return nil
	}
	out := make([]PhotoView, 0, n)
	for i, p := range photos[:n] {
		label := fmt.Sprintf("PHOTO %d", i+1)
		alt := Escape(strings.TrimSpace(p.Label))
		if alt == "" {
			alt = HTML(fmt.Sprintf("Photo %d", i+1))
		}
		out = append(out, PhotoView{
			URL:   Escape(p.URL),
			Alt:   alt,
			Label: label,
		})
	}
	return out
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename derives the artifact name from the reference and generation date.
func Filename(vm ViewModel) string {
	return fmt.Sprintf("Report_%s_%s.pdf", FileStem(vm.Reference), vm.GeneratedAt.Format(isoDateLayout))
}

// FileStem reduces a reference to characters safe in file names and headers.
func FileStem(reference string) string {
	ref := unsafeFilenameChars.ReplaceAllString(reference, "_")
	ref = strings.Trim(ref, "._")
	if ref == "" {
		ref = "report"
	}
	return ref
}
