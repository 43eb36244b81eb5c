package domain

import (
	"strings"
	"time"
)

type Address struct {
	Street string `json:"street,omitempty"`
	Zip    string `json:"zip,omitempty"`
	City   string `json:"city,omitempty"`
}

type Garage struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	CompanyName        string     `json:"company_name,omitempty"`
	LogoURL            string     `json:"logo_url,omitempty"`
	Address            Address    `json:"company_address"`
	Phone              string     `json:"company_phone,omitempty"`
	Email              string     `json:"company_email,omitempty"`
	PlanType           string     `json:"plan_type,omitempty"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionActive bool       `json:"is_subscription_active"`
	CreatedAt          time.Time  `json:"created_at"`
}

// GarageInput is the editable branding of a garage. Subscription fields are
// not part of it.
type GarageInput struct {
	Name        *string  `json:"name,omitempty"`
	CompanyName *string  `json:"company_name,omitempty"`
	LogoURL     *string  `json:"logo_url,omitempty"`
	Address     *Address `json:"company_address,omitempty"`
	Phone       *string  `json:"company_phone,omitempty"`
	Email       *string  `json:"company_email,omitempty"`
}

func (in GarageInput) Empty() bool {
	return in.Name == nil && in.CompanyName == nil && in.LogoURL == nil &&
		in.Address == nil && in.Phone == nil && in.Email == nil
}

// Apply copies the non-nil fields of the input onto the garage.
func (in GarageInput) Apply(g *Garage) {
	if in.Name != nil {
		g.Name = strings.TrimSpace(*in.Name)
	}
	if in.CompanyName != nil {
		g.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.LogoURL != nil {
		g.LogoURL = strings.TrimSpace(*in.LogoURL)
	}
	if in.Address != nil {
		g.Address = Address{
			Street: strings.TrimSpace(in.Address.Street),
			Zip:    strings.TrimSpace(in.Address.Zip),
			City:   strings.TrimSpace(in.Address.City),
		}
	}
	if in.Phone != nil {
		g.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		g.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
}

// Profile links an authenticated user to the garage they currently act for.
type Profile struct {
	UserID         string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name,omitempty"`
	ActiveGarageID string `json:"active_garage_id,omitempty"`
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID   string
	Email    string
	FullName string
	GarageID string
}

func (a Actor) DisplayName() string {
	if name := strings.TrimSpace(a.FullName); name != "" {
		return name
	}
	return a.Email
}

const (
	HistoryActionClaimCreated = "claim_created"
	HistoryActionClaimUpdated = "claim_updated"
	HistoryActionPDFGenerated = "pdf_generated"
)

type HistoryEntry struct {
	ID          string    `json:"id"`
	ClaimID     string    `json:"claim_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	CreatedAt   time.Time `json:"created_at"`
}

// GeneratedReport describes a published claim report.
type GeneratedReport struct {
	ClaimID   string    `json:"claim_id"`
	Reference string    `json:"reference"`
	Filename  string    `json:"filename"`
	PDFURL    string    `json:"pdf_url"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportGeneratedEvent is emitted after a report has been published.
type ReportGeneratedEvent struct {
	ClaimID     string    `json:"claim_id"`
	GarageID    string    `json:"garage_id"`
	Reference   string    `json:"reference"`
	Filename    string    `json:"filename"`
	PDFURL      string    `json:"pdf_url"`
	GeneratedBy string    `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`
}
