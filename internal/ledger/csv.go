package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	deletedOfferName = "Deleted Offer"
	csvDateLayout    = "2006-01-02 15:04:05"
)

var csvHeader = []string{"date", "offer_name", "redemption_id", "amount", "location"}

// ExportFilename is the attachment name of a merchant's ledger export.
func ExportFilename(merchantID uuid.UUID) string {
	return fmt.Sprintf("ledger_%s.csv", merchantID)
}

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		offerName := deletedOfferName
		if row.OfferName != nil {
			offerName = *row.OfferName
		}
		location := ""
		if row.Location != nil {
			location = *row.Location
		}
		record := []string{
			row.CreatedAt.UTC().Format(csvDateLayout),
			offerName,
			row.RedemptionID.String(),
			row.Amount.StringFixed(2),
			location,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
