package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ReceiptService renders the registration summary PDF.
type ReceiptService struct {
	Registrations RegistrationService
	Now           func() time.Time
	RequestID     string
	Loader        func(ctx context.Context, registrationID int64, rc domain.RequestContext) (receiptData, error)
}

type receiptData struct {
	Registration RegistrationView
	TripTitle    string
	Payments     []models.Payment
}

func (s ReceiptService) Generate(ctx context.Context, registrationID int64, rc domain.RequestContext) ([]byte, string, error) {
	data, err := s.load(ctx, registrationID, rc)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "receipt", "generate", fmt.Sprintf("registration_id=%d", registrationID))
	return buildReceiptPDF(data, clock(s.Now).now())
}

func (s ReceiptService) load(ctx context.Context, registrationID int64, rc domain.RequestContext) (receiptData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, registrationID, rc)
	}
	rs := s.Registrations
	view, err := rs.Get(ctx, registrationID, rc)
	if err != nil {
		return receiptData{}, err
	}
	trip, err := rs.Trips.Get(ctx, rs.DB, view.TripID)
	if err != nil {
		return receiptData{}, intdb.MapErr("receipt", err)
	}
	payments, err := rs.Payments.ListByRegistration(ctx, rs.DB, view.ID)
	if err != nil {
		return receiptData{}, intdb.MapErr("receipt", err)
	}
	return receiptData{Registration: view, TripTitle: trip.Title, Payments: payments}, nil
}

func buildReceiptPDF(d receiptData, now time.Time) ([]byte, string, error) {
	reg := d.Registration
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Registration Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "REGISTRATION RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	discount := "-"
	if reg.DiscountType != nil {
		discount = fmt.Sprintf("%s (%s)", *reg.DiscountType, utils.FormatMoney(reg.DiscountApplied))
	}
	lines := []string{
		fmt.Sprintf("Registration : #%d", reg.ID),
		fmt.Sprintf("Trip         : %s", safe(d.TripTitle, "-")),
		fmt.Sprintf("Email        : %s", safe(reg.Email, "-")),
		fmt.Sprintf("Trip type    : %s", safe(string(reg.TripType), "-")),
		fmt.Sprintf("City / Tier  : %s / %s", safe(reg.Selections.City, "-"), safe(reg.Selections.Tier, "-")),
		fmt.Sprintf("Room sharing : %s", safe(reg.Selections.RoomSharing, "-")),
		fmt.Sprintf("Status       : %s", safe(string(reg.Status), "-")),
		fmt.Sprintf("Issued       : %s", utils.FormatDateTime(now)),
	}
	if len(reg.Members) > 0 {
		lines = append(lines, fmt.Sprintf("Members      : %s", strings.Join(reg.Members, ", ")))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Payments:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	if len(d.Payments) == 0 {
		pdf.Cell(0, 6, "No payments yet.")
		pdf.Ln(6)
	}
	for i, p := range d.Payments {
		pdf.Cell(0, 6, fmt.Sprintf("%d) #%d %s  cash %s  wallet %s  %s",
			i+1, p.ID, utils.FormatDate(p.CreatedAt), utils.FormatMoney(p.Amount), utils.FormatMoney(p.WalletAmount), p.Status))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.Cell(0, 7, "Price    : "+utils.FormatMoney(reg.Price))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Discount : "+discount)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Settled  : "+utils.FormatMoney(reg.SettledTotal))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Amount due: "+utils.FormatMoney(reg.AmountDue))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Payments pending approval are counted as settled until reviewed.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("RECEIPT_%d_%s.pdf", reg.ID, safeFilenamePart(reg.Email))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", "@", "_at_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
