package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		prefix string
		local  string
		key    string
	}{
		{"clark us-gaap", "{http://fasb.org/us-gaap/2024}AssetsCurrent", "us-gaap", "AssetsCurrent", "us-gaap:AssetsCurrent"},
		{"clark unknown ns", "{http://example.com/abc}Widgets", "", "Widgets", "Widgets"},
		{"colon", "ifrs-full:Revenue", "ifrs-full", "Revenue", "ifrs-full:Revenue"},
		{"underscore", "us-gaap_LiabilitiesCurrent", "us-gaap", "LiabilitiesCurrent", "us-gaap:LiabilitiesCurrent"},
		{"underscore lowercase tail", "custom_value_total", "", "custom_value_total", "custom_value_total"},
		{"bare", "Assets", "", "Assets", "Assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := ParseQName(tt.input)
			assert.Equal(t, tt.prefix, q.Prefix)
			assert.Equal(t, tt.local, q.Local)
			assert.Equal(t, tt.key, q.Key())
		})
	}
}

func TestAlternateKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "us-gaap_Assets", AlternateKey("us-gaap:Assets"))
	assert.Equal(t, "us-gaap:Assets", AlternateKey("us-gaap_Assets"))
	assert.Equal(t, "", AlternateKey("Assets"))
	assert.Equal(t, "Assets", LocalName("us-gaap_Assets"))
}

func TestInference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		local   string
		balance string
		period  string
	}{
		{"Assets", BalanceDebit, PeriodInstant},
		{"LiabilitiesCurrent", BalanceCredit, PeriodInstant},
		{"Revenues", BalanceCredit, PeriodDuration},
		{"IncomeTaxExpenseBenefit", BalanceDebit, PeriodDuration},
		{"PaymentsToAcquirePropertyPlantAndEquipment", BalanceDebit, PeriodDuration},
		{"NetCashProvidedByOperatingActivities", "", PeriodDuration},
		{"InventoryNet", BalanceDebit, PeriodInstant},
		{"EntityRegistrantName", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.local, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.balance, InferBalance(tt.local))
			assert.Equal(t, tt.period, InferPeriod(tt.local))
		})
	}
}

func TestGenerateLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Assets Current", GenerateLabel("AssetsCurrent"))
	assert.Equal(t, "Net Cash Provided By Operating Activities", GenerateLabel("NetCashProvidedByOperatingActivities"))
	assert.Equal(t, "EBITDA Margin", GenerateLabel("EBITDAMargin"))
	assert.True(t, IsAbstractName("BalanceSheetAbstract"))
	assert.True(t, IsAbstractName("rootStatement"))
	assert.False(t, IsAbstractName("Assets"))
}

func TestInferDataType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DataMonetary, InferDataType("USD"))
	assert.Equal(t, DataPerShare, InferDataType("USDPerShare"))
	assert.Equal(t, DataShares, InferDataType("shares"))
	assert.Equal(t, DataPure, InferDataType("pure"))
	assert.Equal(t, "", InferDataType(""))
}
