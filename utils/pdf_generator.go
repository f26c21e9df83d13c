package utils

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"freighterp/models"
	"freighterp/repository"
)

const (
	ServiceBillTemplate      = "service_bill.html"
	DestinationEntryTemplate = "destination_entry.html"
)

// FormatContacts joins mobile numbers as "number(label), number(label)".
func FormatContacts(profile *models.CompanyProfile) string {
	if profile == nil {
		return ""
	}
	parts := make([]string, 0, len(profile.Mobile))
	for _, m := range profile.Mobile {
		if m.Label == "" {
			parts = append(parts, m.Number)
			continue
		}
		parts = append(parts, m.Number+"("+m.Label+")")
	}
	return strings.Join(parts, ", ")
}

func dateOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// BuildServiceBillPDFData gathers everything the service bill template
// prints. It returns nil when the bill does not exist.
func BuildServiceBillPDFData(ctx context.Context, repo *repository.PDFRepository, billID int64) (*models.ServiceBillPDFData, error) {
	company, err := repo.GetCompanyProfileForPDF(ctx)
	if err != nil {
		return nil, err
	}
	bill, err := repo.GetServiceBillForPDF(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, nil
	}

	data := &models.ServiceBillPDFData{
		Company:      company,
		Contacts:     FormatContacts(company),
		Bill:         bill,
		Date:         dateOrDash(bill.BillDate),
		Handling:     bill.Handling,
		Depot:        bill.Depot,
		FOL:          bill.FOL,
		HSNTransport: models.HSNTransport,
		HSNHandling:  models.HSNHandling,
	}
	if bill.Handling != nil {
		data.HandlingClaim = ClaimLine(bill.Handling.TotalBillAmount)
	}
	if bill.Depot != nil {
		rows, err := repo.GetBilledDepotRows(ctx, billID)
		if err != nil {
			return nil, err
		}
		data.DepotRows = rows
		data.DepotClaim = ClaimLine(bill.Depot.TotalDepotAmount)
	}
	if bill.FOL != nil {
		data.FOLClaim = ClaimLine(bill.FOL.GrandTotalAmount)
	}
	return data, nil
}

// BuildDestinationEntryPDFData returns nil when the entry does not exist.
func BuildDestinationEntryPDFData(ctx context.Context, repo *repository.PDFRepository, entryID int64) (*models.DestinationEntryPDFData, error) {
	company, err := repo.GetCompanyProfileForPDF(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := repo.GetDestinationEntryForPDF(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	data := &models.DestinationEntryPDFData{
		Company:  company,
		Contacts: FormatContacts(company),
		Entry:    entry,
		Date:     dateOrDash(&entry.Date),
	}
	if entry.Destination != nil {
		data.Destination = entry.Destination.DisplayPlace()
	}
	if entry.Totals != nil {
		data.TotalAmount = entry.Totals.Amount
	}
	data.Claim = ClaimLine(data.TotalAmount)
	return data, nil
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// RenderTemplate executes the named HTML template from dir.
func RenderTemplate(dir, name string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).ParseFiles(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTMLToPDF prints an HTML document to an A4 PDF with headless Chrome.
func HTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	// Create temp HTML file
	tmpHTML := filepath.Join(os.TempDir(), "freighterp_"+time.Now().Format("20060102150405.000000000")+".html")
	if err := os.WriteFile(tmpHTML, []byte(html), 0644); err != nil {
		return nil, err
	}
	defer os.Remove(tmpHTML)

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(cctx,
		chromedp.Navigate("file://"+tmpHTML),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4 width
				WithPaperHeight(11.7). // A4 height
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// PDFGenerator renders bill and entry templates to PDF bytes.
type PDFGenerator struct {
	TemplateDir string
	Print       func(ctx context.Context, html string) ([]byte, error)
}

func NewPDFGenerator(templateDir string) *PDFGenerator {
	return &PDFGenerator{TemplateDir: templateDir, Print: HTMLToPDF}
}

func (g *PDFGenerator) Render(ctx context.Context, name string, data any) ([]byte, error) {
	html, err := RenderTemplate(g.TemplateDir, name, data)
	if err != nil {
		return nil, err
	}
	return g.Print(ctx, html)
}
