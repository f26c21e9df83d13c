package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"freighterp/models"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	depotHeaders = []string{"Sl", "Destination", "Date", "Qty (MT)", "KM", "MT x KM", "Rate", "Amount"}
	folHeaders   = []string{"Slab", "Rate", "Destination", "Qty (MT)", "MT x KM", "Amount"}
)

type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
}

func (w *sheetWriter) set(col, row int, v any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if d, ok := v.(decimal.Decimal); ok {
		v = d.InexactFloat64()
	}
	w.f.SetCellValue(w.sheet, cell, v)
}

func (w *sheetWriter) header(row int, titles []string) {
	for i, h := range titles {
		w.set(i+1, row, h)
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(len(titles), row)
	w.f.SetCellStyle(w.sheet, from, to, w.bold)
}

// ServiceBillWorkbook lays a service bill out as one sheet per section.
func ServiceBillWorkbook(data *models.ServiceBillPDFData) (*excelize.File, string, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, "", err
	}

	first := true
	newSheet := func(name string) *sheetWriter {
		if first {
			f.SetSheetName("Sheet1", name)
			first = false
		} else {
			f.NewSheet(name)
		}
		return &sheetWriter{f: f, sheet: name, bold: bold}
	}

	bill := data.Bill
	if h := data.Handling; h != nil {
		w := newSheet("Handling")
		rows := []struct {
			label string
			value any
		}{
			{"Bill No", h.BillNumber},
			{"Date", data.Date},
			{"HSN", data.HSNHandling},
			{"Particulars", h.Particulars},
			{"Qty Shipped (MT)", h.QtyShipped},
			{"FOL", h.FOLTotal},
			{"Depot", h.DepotTotal},
			{"RH Sales", h.RHSales},
			{"Qty Received (MT)", h.QtyReceived},
			{"Shortage (MT)", h.Shortage},
			{"Rate", h.Rate},
			{"Bill Amount", h.BillAmount},
			{"CGST 9%", h.CGST},
			{"SGST 9%", h.SGST},
			{"Total", h.TotalBillAmount},
		}
		for i, r := range rows {
			w.set(1, i+1, r.label)
			w.set(2, i+1, r.value)
		}
		w.set(1, len(rows)+2, data.HandlingClaim)
		f.SetColWidth(w.sheet, "A", "A", 20)
		f.SetColWidth(w.sheet, "B", "B", 30)
	}

	if d := data.Depot; d != nil {
		w := newSheet("Depot")
		w.set(1, 1, "Bill No")
		w.set(2, 1, d.BillNumber)
		w.header(3, depotHeaders)
		row := 4
		for i, r := range data.DepotRows {
			w.set(1, row, i+1)
			w.set(2, row, r.Destination)
			w.set(3, row, r.Date)
			w.set(4, row, r.QtyMT)
			w.set(5, row, r.KM)
			w.set(6, row, r.MTKM)
			w.set(7, row, r.Rate)
			w.set(8, row, r.Amount)
			row++
		}
		w.set(1, row, "Total")
		w.set(4, row, d.TotalDepotQty)
		w.set(8, row, d.TotalDepotAmount)
		w.set(1, row+2, data.DepotClaim)
		f.SetColWidth(w.sheet, "B", "B", 24)
	}

	if fol := data.FOL; fol != nil {
		w := newSheet("FOL")
		w.set(1, 1, "Bill No")
		w.set(2, 1, fol.BillNumber)
		w.set(3, 1, "RH Qty")
		w.set(4, 1, fol.RHQty)
		w.header(3, folHeaders)
		row := 4
		for _, s := range fol.Slabs {
			for _, dest := range s.Destinations {
				w.set(1, row, s.RangeSlab.Label())
				w.set(2, row, s.Rate)
				w.set(3, row, dest.DestinationPlace)
				w.set(4, row, dest.QtyMT)
				w.set(5, row, dest.QtyMTK)
				w.set(6, row, dest.Amount)
				row++
			}
			w.set(3, row, "Subtotal")
			w.set(4, row, s.RangeTotalQty)
			w.set(5, row, s.RangeTotalMTK)
			w.set(6, row, s.RangeTotalAmount)
			row++
		}
		w.set(3, row, "Grand Total")
		w.set(4, row, fol.GrandTotalQty)
		w.set(6, row, fol.GrandTotalAmount)
		w.set(1, row+2, data.FOLClaim)
		f.SetColWidth(w.sheet, "A", "C", 18)
	}

	if first {
		newSheet("Bill")
	}
	return f, fmt.Sprintf("service_bill_%d.xlsx", bill.ID), nil
}
