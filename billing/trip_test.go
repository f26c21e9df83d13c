package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTrip(t *testing.T) {
	tests := []struct {
		name   string
		bags   int
		km     string
		rate   string
		isMTK  bool
		mt     string
		mtk    string
		amount string
	}{
		{"mtk slab", 100, "20", "500", true, "5", "100", "50000"},
		{"flat slab", 100, "20", "500", false, "5", "100", "2500"},
		{"zero bags", 0, "20", "500", true, "0", "0", "0"},
		{"zero km", 100, "0", "500", true, "5", "0", "0"},
		{"zero km flat", 100, "0", "500", false, "5", "0", "2500"},
		{"single bag", 1, "12.5", "10", true, "0.05", "0.625", "6.25"},
		{"weight rounding", 3, "33.3333", "1", true, "0.15", "5", "5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTrip(tc.bags, dec(tc.km), dec(tc.rate), tc.isMTK)
			if !got.WeightMT.Equal(dec(tc.mt)) {
				t.Errorf("weight_mt = %s, want %s", got.WeightMT, tc.mt)
			}
			if !got.WeightMTK.Equal(dec(tc.mtk)) {
				t.Errorf("weight_mtk = %s, want %s", got.WeightMTK, tc.mtk)
			}
			if !got.Amount.Equal(dec(tc.amount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tc.amount)
			}
		})
	}
}

func TestValidateTripInput(t *testing.T) {
	tests := []struct {
		name    string
		bags    int
		km      string
		wantErr bool
	}{
		{"ok", 10, "5", false},
		{"max bags", MaxBags, "0", false},
		{"too many bags", MaxBags + 1, "0", true},
		{"negative bags", -1, "0", true},
		{"negative km", 1, "-0.5", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTripInput(tc.bags, dec(tc.km))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
