package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ClaimStatus string

const (
	ClaimStatusDraft     ClaimStatus = "draft"
	ClaimStatusAnalyzing ClaimStatus = "analyzing"
	ClaimStatusReview    ClaimStatus = "review"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusArchived  ClaimStatus = "archived"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusDraft, ClaimStatusAnalyzing, ClaimStatusReview, ClaimStatusCompleted, ClaimStatusArchived:
		return true
	default:
		return false
	}
}

// Number is a JSON numeric field that also accepts numeric strings, as
// produced by form inputs on the client side.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

type Vehicle struct {
	Brand   string `json:"brand,omitempty"`
	Model   string `json:"model,omitempty"`
	Year    Number `json:"year,omitempty"`
	VIN     string `json:"vin,omitempty"`
	Plate   string `json:"plate,omitempty"`
	Color   string `json:"color,omitempty"`
	Mileage Number `json:"mileage,omitempty"`
}

type Client struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Insurance struct {
	Company      string `json:"company,omitempty"`
	ClaimNumber  string `json:"claim_number,omitempty"`
	AccidentDate string `json:"accident_date,omitempty"`
}

type Damage struct {
	Zone           string `json:"zone,omitempty"`
	Description    string `json:"description,omitempty"`
	Severity       string `json:"severity,omitempty"`
	EstimatedHours Number `json:"estimated_hours,omitempty"`
}

type AIReport struct {
	Damages []Damage `json:"damages,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

type ManualAdjustments struct {
	AdjustedDamages    []Damage `json:"adjusted_damages,omitempty"`
	TotalHoursAdjusted Number   `json:"total_hours_adjusted,omitempty"`
}

type Photo struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

type Claim struct {
	ID                string             `json:"id"`
	GarageID          string             `json:"garage_id"`
	Reference         string             `json:"reference,omitempty"`
	Status            ClaimStatus        `json:"status"`
	Vehicle           Vehicle            `json:"vehicle_data"`
	Client            Client             `json:"client_data"`
	Insurance         Insurance          `json:"insurance_details"`
	AIReport          *AIReport          `json:"ai_report,omitempty"`
	ManualAdjustments *ManualAdjustments `json:"manual_adjustments,omitempty"`
	Photos            []Photo            `json:"images"`
	PDFURL            string             `json:"pdf_url,omitempty"`
	CreatedBy         string             `json:"created_by,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
}

// AssessmentDamages returns the damage list produced by the assessment step.
func (c *Claim) AssessmentDamages() []Damage {
	if c == nil || c.AIReport == nil {
		return nil
	}
	return c.AIReport.Damages
}

// AdjustedDamages returns the expert overlay list, or nil when there is none.
func (c *Claim) AdjustedDamages() []Damage {
	if c == nil || c.ManualAdjustments == nil {
		return nil
	}
	return c.ManualAdjustments.AdjustedDamages
}

type ClaimFilter struct {
	Status ClaimStatus
	Search string
	Limit  int
}

// ClaimInput is the editable subset of a claim. Nil pointers are left unchanged
// on update.
type ClaimInput struct {
	Reference         *string            `json:"reference,omitempty"`
	Status            *ClaimStatus       `json:"status,omitempty"`
	Vehicle           *Vehicle           `json:"vehicle_data,omitempty"`
	Client            *Client            `json:"client_data,omitempty"`
	Insurance         *Insurance         `json:"insurance_details,omitempty"`
	AIReport          *AIReport          `json:"ai_report,omitempty"`
	ManualAdjustments *ManualAdjustments `json:"manual_adjustments,omitempty"`
	Photos            *[]Photo           `json:"images,omitempty"`
}

// Apply copies the non-nil fields of the input onto the claim. Status is
// handled by the caller.
func (in ClaimInput) Apply(c *Claim) {
	if in.Reference != nil {
		c.Reference = strings.TrimSpace(*in.Reference)
	}
	if in.Vehicle != nil {
		c.Vehicle = *in.Vehicle
	}
	if in.Client != nil {
		c.Client = *in.Client
	}
	if in.Insurance != nil {
		c.Insurance = *in.Insurance
	}
	if in.AIReport != nil {
		c.AIReport = in.AIReport
	}
	if in.ManualAdjustments != nil {
		c.ManualAdjustments = in.ManualAdjustments
	}
	if in.Photos != nil {
		c.Photos = *in.Photos
	}
}
