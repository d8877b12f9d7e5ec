package validation

import (
	"errors"
	"testing"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/shopspring/decimal"
)

type line struct {
	TaxReturnID uint            `json:"taxReturnId" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

type request struct {
	AccountID uint   `json:"accountId" validate:"required"`
	LineItems []line `json:"lineItems" validate:"required,min=1,dive"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   request
		want Violations
	}{
		{"valid", request{AccountID: 1, LineItems: []line{{TaxReturnID: 2, Price: decimal.NewFromInt(80)}}}, Violations{}},
		{"missing account", request{LineItems: []line{{TaxReturnID: 2}}}, Violations{"accountId": "required"}},
		{"no lines", request{AccountID: 1}, Violations{"lineItems": "required"}},
		{"negative price", request{AccountID: 1, LineItems: []line{{TaxReturnID: 2, Price: decimal.NewFromInt(-1)}}}, Violations{"lineItems[0].price": "gte"}},
		{"zero return", request{AccountID: 1, LineItems: []line{{Price: decimal.NewFromInt(1)}}}, Violations{"lineItems[0].taxReturnId": "required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Struct(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Struct() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("violation %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestViolationsErr(t *testing.T) {
	v := Violations{"text": "required"}
	err := v.Err("invalid input")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Err() = %v, want validation error", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Details["text"] != "required" {
		t.Fatalf("details = %v", err)
	}
	if (Violations{}).Err("x") != nil {
		t.Fatal("empty violations must return nil")
	}
}
