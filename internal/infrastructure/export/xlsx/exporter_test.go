package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func TestExporterWritesHeaderAndRows(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	completed := created.Add(2 * time.Hour)
	claims := []domain.Claim{
		{
			Reference: "VWC-2025-000042",
			Status:    domain.ClaimStatusCompleted,
			Vehicle:   domain.Vehicle{Brand: "Peugeot", Model: "308", Plate: "AB-123-CD"},
			Client:    domain.Client{Name: "Jean Dupont"},
			Insurance: domain.Insurance{Company: "AXA"},
			AIReport: &domain.AIReport{Damages: []domain.Damage{
				{EstimatedHours: 1.5}, {EstimatedHours: 2},
			}},
			PDFURL:      "https://cdn/r.pdf",
			CreatedAt:   created,
			CompletedAt: &completed,
		},
		{
			Reference: "VWC-2025-000043",
			Status:    domain.ClaimStatusDraft,
			AIReport:  &domain.AIReport{Damages: []domain.Damage{{EstimatedHours: 9}}},
			ManualAdjustments: &domain.ManualAdjustments{
				AdjustedDamages:    []domain.Damage{{EstimatedHours: 1}},
				TotalHoursAdjusted: 4,
			},
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	if err := NewExporter(time.UTC).Export(&buf, claims); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Référence" || rows[0][7] != "Heures totales" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "VWC-2025-000042" || rows[1][6] != "AXA" || rows[1][7] != "3.5" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[1][9] != "14/03/2025 09:30" || rows[1][10] != "14/03/2025 11:30" {
		t.Fatalf("unexpected dates: %v", rows[1])
	}
	if rows[2][7] != "4" {
		t.Fatalf("expected override total 4, got %q", rows[2][7])
	}
}

func TestExporterContentType(t *testing.T) {
	if NewExporter(nil).ContentType() != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type")
	}
}
