package models

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Account{},
		&Product{}, &DirectDepositFee{}, &Category{}, &Question{},
		&ChecklistItem{}, &ChecklistRule{}, &TaxReturnStatus{},
		&TaxReturn{}, &Answer{},
		&Quote{}, &QuoteLineItem{}, &AdminQuoteLineItem{},
		&Document{}, &Message{},
	}
}
