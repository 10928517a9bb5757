package kinvo_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

func TestCategory_UnmarshalJSON(t *testing.T) {
	var chart kinvo.ChartData
	payload := `{"categories":["jan/24", 2023, "2024-01-02T00:00:00"],"series":[{"name":"Carteira","data":[1.5,null,2]}]}`
	if err := json.Unmarshal([]byte(payload), &chart); err != nil {
		t.Fatalf("Unmarshal returned unexpected error: %v", err)
	}

	got := chart.ToModel()
	want := []string{"jan/24", "2023", "2024-01-02T00:00:00"}
	for i := range want {
		if got.Categories[i] != want[i] {
			t.Errorf("Category %d: expected %q, got %q", i, want[i], got.Categories[i])
		}
	}
	if got.Series[0].Data[1] != 0 {
		t.Errorf("Expected null data point to decode as 0, got %v", got.Series[0].Data[1])
	}
}

func TestToStatements(t *testing.T) {
	tax := 1.5
	items := []kinvo.ProductStatement{
		{ID: 1, MovementType: 1, Date: "2024-02-10T00:00:00", Value: 100, IncomeTax: &tax},
		{ID: 2, MovementType: 0, Date: "2024-02-15", Value: 3},
	}

	got, err := kinvo.ToStatements(9, items)
	if err != nil {
		t.Fatalf("ToStatements() returned unexpected error: %v", err)
	}

	if got[0].MovementType != model.MovementApplication || got[0].IncomeTax != 1.5 || got[0].PortfolioProductID != 9 {
		t.Errorf("Unexpected first statement: %+v", got[0])
	}
	if got[1].IOF != 0 || !got[1].Date.Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected second statement: %+v", got[1])
	}

	if _, err := kinvo.ToStatements(9, []kinvo.ProductStatement{{Date: "10/02/2024"}}); err == nil {
		t.Error("Expected error for unknown date format")
	}
}

func TestCapitalGain_Entries(t *testing.T) {
	got, err := capitalGainPayload().Entries()
	if err != nil {
		t.Fatalf("Entries() returned unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].ReferenceDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || got[0].CapitalGain != 10 {
		t.Errorf("Unexpected entries: %+v", got)
	}
}

func TestFundDailyEquity_ToModel(t *testing.T) {
	e := kinvo.FundDailyEquity{PortfolioProductID: 3, DailyReferenceDate: time.Date(2024, 5, 6, 3, 0, 0, 0, time.UTC).Unix(), Value: 250}
	got := e.ToModel()
	if !got.ReferenceDate.Equal(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)) || got.Value != 250 {
		t.Errorf("Unexpected daily equity: %+v", got)
	}
}
