package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_IsAdmin(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{"", false},
	}
	for _, tt := range tests {
		a := &Account{Role: tt.role}
		if got := a.IsAdmin(); got != tt.want {
			t.Errorf("IsAdmin() with role %q = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestDocument_IsAdditional(t *testing.T) {
	zero, three := uint(0), uint(3)
	tests := []struct {
		name string
		item *uint
		want bool
	}{
		{"nil checklist item", nil, true},
		{"zero checklist item", &zero, true},
		{"checklist document", &three, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Document{ChecklistItemID: tt.item}
			if got := d.IsAdditional(); got != tt.want {
				t.Errorf("IsAdditional() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOwnership(t *testing.T) {
	if got := (&Quote{AccountID: 10}).GetAccountID(); got != 10 {
		t.Errorf("Quote.GetAccountID() = %d, want 10", got)
	}
	if got := (&TaxReturn{AccountID: 11}).GetAccountID(); got != 11 {
		t.Errorf("TaxReturn.GetAccountID() = %d, want 11", got)
	}
	if got := (&Account{ID: 12}).GetAccountID(); got != 12 {
		t.Errorf("Account.GetAccountID() = %d, want 12", got)
	}
}

func TestLineItemValueJSON(t *testing.T) {
	tr := uint(100)
	tests := []struct {
		name string
		item any
		want string
	}{
		{"whole amount", QuoteLineItem{ID: 1, TaxReturnID: &tr, Text: LineItemTaxPrep, Value: decimal.RequireFromString("80")}, `"value":"80.00"`},
		{"fee", QuoteLineItem{ID: 2, Text: LineItemDirectDeposit, Value: decimal.RequireFromString("5")}, `"value":"5.00"`},
		{"admin credit", AdminQuoteLineItem{ID: 3, Text: "Discount", Value: decimal.RequireFromString("-12.5")}, `"value":"-12.50"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.item)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(b), tt.want) {
				t.Errorf("json = %s, want %s", b, tt.want)
			}
			if strings.Count(string(b), `"value"`) != 1 {
				t.Errorf("value emitted more than once: %s", b)
			}
		})
	}
}
