package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

const (
	sheetName   = "Dossiers"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout  = "02/01/2006 15:04"
)

var headers = []string{
	"Référence", "Statut", "Marque", "Modèle", "Immatriculation", "Client",
	"Assureur", "Heures totales", "Rapport PDF", "Créé le", "Terminé le",
}

// Exporter writes claims as a single-sheet XLSX workbook.
type Exporter struct {
	location *time.Location
}

func NewExporter(location *time.Location) *Exporter {
	if location == nil {
		location = time.Local
	}
	return &Exporter{location: location}
}

func (e *Exporter) ContentType() string {
	return contentType
}

func (e *Exporter) Export(w io.Writer, claims []domain.Claim) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range claims {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, e.row(&claims[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) row(c *domain.Claim) []any {
	completed := ""
	if c.CompletedAt != nil {
		completed = c.CompletedAt.In(e.location).Format(dateLayout)
	}
	return []any{
		c.Reference,
		string(c.Status),
		c.Vehicle.Brand,
		c.Vehicle.Model,
		c.Vehicle.Plate,
		c.Client.Name,
		c.Insurance.Company,
		totalHours(c),
		c.PDFURL,
		c.CreatedAt.In(e.location).Format(dateLayout),
		completed,
	}
}

// totalHours follows the report rule: the expert overlay wins over the
// assessment, and a positive override wins over the sum.
func totalHours(c *domain.Claim) float64 {
	damages := c.AssessmentDamages()
	if adjusted := c.AdjustedDamages(); len(adjusted) > 0 {
		if override := c.ManualAdjustments.TotalHoursAdjusted.Float(); override > 0 {
			return override
		}
		damages = adjusted
	}
	var total float64
	for _, d := range damages {
		total += d.EstimatedHours.Float()
	}
	return total
}
