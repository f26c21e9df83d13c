package billing

import (
	"errors"
	"testing"

	"freighterp/models"
)

func TestComputeHandling(t *testing.T) {
	got := ComputeHandling(models.HandlingSection{
		BillNumber: "H-1",
		QtyShipped: dec("100"),
		FOLTotal:   dec("40"),
		DepotTotal: dec("30"),
		RHSales:    dec("20"),
		Rate:       dec("200"),
	})

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"qty_received", got.QtyReceived.String(), "90"},
		{"shortage", got.Shortage.String(), "10"},
		{"bill_amount", got.BillAmount.String(), "18000"},
		{"cgst", got.CGST.String(), "1620"},
		{"sgst", got.SGST.String(), "1620"},
		{"total_bill_amount", got.TotalBillAmount.String(), "21240"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
		}
	}
}

func TestComputeHandlingRoundsMoney(t *testing.T) {
	got := ComputeHandling(models.HandlingSection{
		QtyShipped: dec("10"),
		FOLTotal:   dec("3.333"),
		Rate:       dec("1.1"),
	})
	if !got.BillAmount.Equal(dec("3.67")) {
		t.Errorf("bill_amount = %s, want 3.67", got.BillAmount)
	}
	if !got.CGST.Equal(dec("0.33")) {
		t.Errorf("cgst = %s, want 0.33", got.CGST)
	}
	if !got.Shortage.Equal(dec("6.667")) {
		t.Errorf("shortage = %s, want 6.667", got.Shortage)
	}
}

func TestValidateHandling(t *testing.T) {
	if err := validateHandling(models.HandlingSection{}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing bill number: got %v", err)
	}
	err := validateHandling(models.HandlingSection{BillNumber: "H", RHSales: dec("-1")})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "handling.rh_sales" {
		t.Errorf("negative rh_sales: got %v", err)
	}
	if err := validateHandling(models.HandlingSection{BillNumber: "H"}); err != nil {
		t.Errorf("valid section: %v", err)
	}
}
