package usecase

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

var (
	vinPattern   = regexp.MustCompile(`(?i)^[A-HJ-NPR-Z0-9]{17}$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-().\/]{8,20}$`)
)

func validateClaimInput(in domain.ClaimInput, now time.Time) error {
	verr := &domain.ValidationError{}

	if in.Client != nil {
		if name := strings.TrimSpace(in.Client.Name); name != "" {
			if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
				verr.Add("client_data.name", "Client name must be between 2 and 100 characters")
			}
		}
		if email := strings.TrimSpace(in.Client.Email); email != "" {
			if !validEmail(email) {
				verr.Add("client_data.email", "Valid email is required")
			}
		}
	}

	if in.Vehicle != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(in.Vehicle.Brand)); n > 50 {
			verr.Add("vehicle_data.brand", "Brand must be at most 50 characters")
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(in.Vehicle.Model)); n > 50 {
			verr.Add("vehicle_data.model", "Model must be at most 50 characters")
		}
		if y := in.Vehicle.Year.Float(); y != 0 {
			if y != float64(int(y)) || int(y) < 1900 || int(y) > now.Year()+1 {
				verr.Add("vehicle_data.year", "Valid year is required")
			}
		}
		if vin := strings.TrimSpace(in.Vehicle.VIN); vin != "" && !vinPattern.MatchString(vin) {
			verr.Add("vehicle_data.vin", "VIN must be 17 characters (without I, O, Q)")
		}
		if in.Vehicle.Mileage.Float() < 0 {
			verr.Add("vehicle_data.mileage", "Mileage must be positive")
		}
	}

	if in.Status != nil && !in.Status.Valid() {
		verr.Add("status", "Invalid status")
	}

	for _, list := range [][]domain.Damage{aiDamages(in.AIReport), adjustedDamages(in.ManualAdjustments)} {
		for _, d := range list {
			if d.EstimatedHours.Float() < 0 {
				verr.Add("damages.estimated_hours", "Estimated hours must be positive")
			}
		}
	}

	return verr.OrNil()
}

func validateGarageInput(in domain.GarageInput) error {
	verr := &domain.ValidationError{}

	if in.Name != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*in.Name)); n < 2 || n > 100 {
			verr.Add("name", "Name must be between 2 and 100 characters")
		}
	}
	if in.CompanyName != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*in.CompanyName)); n < 2 || n > 100 {
			verr.Add("company_name", "Company name must be between 2 and 100 characters")
		}
	}
	if in.Email != nil {
		if !validEmail(strings.TrimSpace(*in.Email)) {
			verr.Add("company_email", "Valid email is required")
		}
	}
	if in.Phone != nil {
		if !phonePattern.MatchString(strings.TrimSpace(*in.Phone)) {
			verr.Add("company_phone", "Valid phone number is required")
		}
	}
	if in.LogoURL != nil {
		if raw := strings.TrimSpace(*in.LogoURL); raw != "" {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				verr.Add("logo_url", "Logo must be an http(s) URL")
			}
		}
	}

	return verr.OrNil()
}

func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, "<> ") {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func aiDamages(r *domain.AIReport) []domain.Damage {
	if r == nil {
		return nil
	}
	return r.Damages
}

func adjustedDamages(m *domain.ManualAdjustments) []domain.Damage {
	if m == nil {
		return nil
	}
	return m.AdjustedDamages
}
