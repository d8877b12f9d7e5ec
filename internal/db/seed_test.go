package db

import (
	"fmt"
	"testing"

	"github.com/diewo77/go-taxprep/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedIdempotent(t *testing.T) {
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Seed(d); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	counts := map[any]int64{
		&models.TaxReturnStatus{}:  5,
		&models.Product{}:          2,
		&models.DirectDepositFee{}: 2,
		&models.ChecklistItem{}:    6,
		&models.Category{}:         3,
		&models.Question{}:         7,
		&models.ChecklistRule{}:    6,
	}
	for m, want := range counts {
		var got int64
		d.Model(m).Count(&got)
		if got != want {
			t.Errorf("%T count = %d, want %d", m, got, want)
		}
	}

	var rent models.Question
	if err := d.Where("text = ?", "Did you rent your home?").First(&rent).Error; err != nil {
		t.Fatal(err)
	}
	if rent.LinkedQuestionID == nil {
		t.Fatal("expected rent question to be linked")
	}
}
