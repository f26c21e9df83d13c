package billing

import (
	"github.com/shopspring/decimal"

	"freighterp/models"
)

const moneyPlaces = 2

// gstRate applies once each for CGST and SGST.
var gstRate = decimal.RequireFromString("0.09")

// ComputeHandling re-derives every computed field of h from its five inputs.
func ComputeHandling(h models.HandlingSection) models.HandlingSection {
	received := h.FOLTotal.Add(h.DepotTotal).Add(h.RHSales)
	bill := h.Rate.Mul(received)
	gst := bill.Mul(gstRate)

	h.QtyReceived = received
	h.Shortage = h.QtyShipped.Sub(received)
	h.BillAmount = bill.Round(moneyPlaces)
	h.CGST = gst.Round(moneyPlaces)
	h.SGST = gst.Round(moneyPlaces)
	h.TotalBillAmount = bill.Add(gst).Add(gst).Round(moneyPlaces)
	return h
}

func validateHandling(h models.HandlingSection) error {
	if h.BillNumber == "" {
		return invalid("handling.bill_number", "is required")
	}
	inputs := []struct {
		name string
		v    decimal.Decimal
	}{
		{"qty_shipped", h.QtyShipped},
		{"fol_total", h.FOLTotal},
		{"depot_total", h.DepotTotal},
		{"rh_sales", h.RHSales},
		{"rate", h.Rate},
	}
	for _, in := range inputs {
		if in.v.IsNegative() {
			return invalid("handling."+in.name, "must not be negative")
		}
	}
	return nil
}
