package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// AllocationGrouping selects the category an allocation breakdown groups assets by.
type AllocationGrouping string

const (
	ByStrategy    AllocationGrouping = "strategy"    // Estratégia
	ByClass       AllocationGrouping = "class"       // Classe
	ByInstitution AllocationGrouping = "institution" // Instituição
)

// ParseAllocationGrouping parses a grouping name. An empty string yields ByStrategy.
func ParseAllocationGrouping(s string) (AllocationGrouping, error) {
	switch g := AllocationGrouping(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return ByStrategy, nil
	case ByStrategy, ByClass, ByInstitution:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidGrouping, s)
	}
}

// ProductTypeNames maps Kinvo product type ids to their names.
var ProductTypeNames = map[int]string{
	1:  "Fundo",
	2:  "Previdência",
	3:  "Renda Fixa Pós-Fixada",
	4:  "Tesouro Direto",
	5:  "Poupança",
	6:  "Renda Fixa Pré-Fixada",
	7:  "Criptomoeda",
	8:  "Ação",
	9:  "Debênture",
	10: "Moeda",
	11: "FII",
	12: "BDR",
	14: "Conta Corrente",
	15: "COE",
	97: "Produto de Posição",
	98: "Renda Fixa Customizada",
	99: "Produto Personalizado",
}

// StrategyDescriptions maps Kinvo diversification strategy ids to their descriptions.
var StrategyDescriptions = map[int]string{
	3: "Renda Fixa",
	4: "Multimercado",
	5: "Renda Variável",
}

// SectorStrategies maps a fund sector to the diversification strategy it belongs to.
var SectorStrategies = map[string]int{
	"Renda Fixa":   3,
	"Multimercado": 4,
	"Ações":        5,
}

// GroupAllocation sums asset equity per category. Categories whose total is zero
// or negative are dropped. The result is sorted by equity, largest first.
func GroupAllocation(assets []model.Asset, by AllocationGrouping) []model.AllocationSlice {
	var ids []string
	labels := make(map[string]string)
	totals := make(map[string]float64)
	for _, a := range assets {
		id, label := allocationKey(a, by)
		if _, ok := totals[id]; !ok {
			ids = append(ids, id)
			labels[id] = titleCase(label)
		}
		totals[id] += a.Equity
	}

	out := make([]model.AllocationSlice, 0, len(ids))
	for _, id := range ids {
		if totals[id] <= 0 {
			continue
		}
		out = append(out, model.AllocationSlice{Label: labels[id], FinalEquity: totals[id]})
	}

	slices.SortStableFunc(out, func(a, b model.AllocationSlice) int {
		return cmp.Compare(b.FinalEquity, a.FinalEquity)
	})
	return out
}

func allocationKey(a model.Asset, by AllocationGrouping) (id, label string) {
	switch by {
	case ByClass:
		label = a.ProductTypeName
		if label == "" {
			label = ProductTypeNames[a.ProductTypeID]
		}
		return strconv.Itoa(a.ProductTypeID), fallbackLabel(label)
	case ByInstitution:
		return strconv.FormatInt(a.FinancialInstitutionID, 10), fallbackLabel(a.FinancialInstitutionName)
	default:
		label = a.StrategyDescription
		if label == "" {
			label = StrategyDescriptions[a.StrategyID]
		}
		return strconv.Itoa(a.StrategyID), fallbackLabel(label)
	}
}

func fallbackLabel(label string) string {
	if label == "" {
		return "Outros"
	}
	return label
}

// titleCase lowercases label and capitalizes the first letter of each
// space-separated word only, so "RENDA FIXA PÓS-FIXADA" becomes
// "Renda Fixa Pós-fixada".
func titleCase(label string) string {
	upper := cases.Upper(language.BrazilianPortuguese)
	words := strings.Split(cases.Lower(language.BrazilianPortuguese).String(label), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = upper.String(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
