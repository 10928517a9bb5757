package analytics_test

import (
	"errors"
	"testing"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

func TestGroupAllocation(t *testing.T) {
	assets := []model.Asset{
		{StrategyID: 3, StrategyDescription: "RENDA FIXA", ProductTypeID: 4, FinancialInstitutionID: 10, FinancialInstitutionName: "banco alfa", Equity: 100},
		{StrategyID: 5, ProductTypeID: 8, FinancialInstitutionID: 11, FinancialInstitutionName: "Corretora Beta", Equity: 300},
		{StrategyID: 3, ProductTypeID: 3, FinancialInstitutionID: 10, FinancialInstitutionName: "banco alfa", Equity: 50},
		{StrategyID: 4, ProductTypeID: 1, FinancialInstitutionID: 12, FinancialInstitutionName: "Gestora", Equity: 0},
	}

	t.Run("by strategy", func(t *testing.T) {
		got := analytics.GroupAllocation(assets, analytics.ByStrategy)

		want := []model.AllocationSlice{
			{Label: "Renda Variável", FinalEquity: 300},
			{Label: "Renda Fixa", FinalEquity: 150},
		}
		if len(got) != len(want) {
			t.Fatalf("Expected %d slices, got %d: %+v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Slice %d: expected %+v, got %+v", i, want[i], got[i])
			}
		}
	})

	t.Run("by class uses product type names", func(t *testing.T) {
		got := analytics.GroupAllocation(assets, analytics.ByClass)

		if len(got) != 3 {
			t.Fatalf("Expected 3 slices (zero-equity class dropped), got %d", len(got))
		}
		if got[0].Label != "Ação" || got[0].FinalEquity != 300 {
			t.Errorf("Expected Ação with 300 first, got %+v", got[0])
		}
	})

	t.Run("by institution", func(t *testing.T) {
		got := analytics.GroupAllocation(assets, analytics.ByInstitution)

		if len(got) != 2 {
			t.Fatalf("Expected 2 slices, got %d", len(got))
		}
		if got[1].Label != "Banco Alfa" || got[1].FinalEquity != 150 {
			t.Errorf("Expected Banco Alfa with 150, got %+v", got[1])
		}
	})

	t.Run("labels are capitalized per word, not after hyphens", func(t *testing.T) {
		got := analytics.GroupAllocation([]model.Asset{
			{StrategyID: 9, StrategyDescription: "RENDA FIXA PÓS-FIXADA", Equity: 10},
			{StrategyID: 10, StrategyDescription: "ações  exterior", Equity: 5},
		}, analytics.ByStrategy)

		if len(got) != 2 {
			t.Fatalf("Expected 2 slices, got %d", len(got))
		}
		if got[0].Label != "Renda Fixa Pós-fixada" {
			t.Errorf("Expected 'Renda Fixa Pós-fixada', got '%s'", got[0].Label)
		}
		if got[1].Label != "Ações  Exterior" {
			t.Errorf("Expected 'Ações  Exterior', got '%s'", got[1].Label)
		}
	})

	t.Run("negative totals dropped", func(t *testing.T) {
		got := analytics.GroupAllocation([]model.Asset{{StrategyID: 3, Equity: -5}}, analytics.ByStrategy)
		if len(got) != 0 {
			t.Errorf("Expected no slices, got %+v", got)
		}
	})
}

func TestParseAllocationGrouping(t *testing.T) {
	if g, err := analytics.ParseAllocationGrouping(""); err != nil || g != analytics.ByStrategy {
		t.Errorf("Expected ByStrategy, got %q, %v", g, err)
	}
	if _, err := analytics.ParseAllocationGrouping("sector"); !errors.Is(err, apperrors.ErrInvalidGrouping) {
		t.Errorf("Expected ErrInvalidGrouping, got %v", err)
	}
}
