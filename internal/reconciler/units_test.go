package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		qty    float64
		from   domain.Unit
		to     domain.Unit
		want   float64
		wantOK bool
	}{
		{"g to kg", 1000, domain.UnitGram, domain.UnitKilogram, 1, true},
		{"kg to g", 1, domain.UnitKilogram, domain.UnitGram, 1000, true},
		{"ml to l", 250, domain.UnitMilliliter, domain.UnitLiter, 0.25, true},
		{"l to ml", 1.5, domain.UnitLiter, domain.UnitMilliliter, 1500, true},
		{"pcs passthrough", 3, domain.UnitPiece, domain.UnitPiece, 3, true},
		{"unknown source", 7, domain.UnitUnknown, domain.UnitKilogram, 7, true},
		{"unknown target", 7, domain.UnitGram, domain.UnitUnknown, 7, true},
		{"mass to volume", 5, domain.UnitGram, domain.UnitLiter, 5, false},
		{"pcs to g", 2, domain.UnitPiece, domain.UnitGram, 2, false},
		{"other to kg", 2, domain.UnitOther, domain.UnitKilogram, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.qty, tt.from, tt.to)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvert_RoundTripIsIdentity(t *testing.T) {
	for _, v := range []float64{1, 0.3333, 12.5, 1000, 0.0001} {
		kg, _ := Convert(v, domain.UnitGram, domain.UnitKilogram)
		back, _ := Convert(kg, domain.UnitKilogram, domain.UnitGram)
		assert.Equal(t, quantity.Round(v, 4), quantity.Round(back, 4), "value %v", v)
	}
}
