package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ratio"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

const testComponents = `
components:
  - component_id: total_assets
    display_name: Total Assets
    category: balance_sheet
    matching_rules:
      label_rules:
        - patterns: ["total assets"]
          weight: 15
      local_name_rules:
        - patterns: ["Assets"]
          match_type: exact
          weight: 10
    scoring:
      min_score: 10

  - component_id: current_assets
    display_name: Current Assets
    category: balance_sheet
    matching_rules:
      label_rules:
        - patterns: ["current assets"]
          weight: 15
      local_name_rules:
        - patterns: ["CurrentAssets"]
          weight: 10
    scoring:
      min_score: 10

  - component_id: total_liabilities
    display_name: Total Liabilities
    category: balance_sheet
    matching_rules:
      label_rules:
        - patterns: ["total liabilities"]
          weight: 15
      local_name_rules:
        - patterns: ["Liabilities"]
          match_type: exact
          weight: 10
    scoring:
      min_score: 10

  - component_id: current_liabilities
    display_name: Current Liabilities
    category: balance_sheet
    matching_rules:
      label_rules:
        - patterns: ["current liabilities"]
          weight: 15
      local_name_rules:
        - patterns: ["LiabilitiesCurrent"]
          match_type: exact
          weight: 10
    scoring:
      min_score: 10

  - component_id: total_equity
    display_name: Total Equity
    category: balance_sheet
    matching_rules:
      label_rules:
        - patterns: ["stockholders equity"]
          weight: 15
      local_name_rules:
        - patterns: ["StockholdersEquity"]
          match_type: exact
          weight: 10
    scoring:
      min_score: 10
`

const testInline = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"><body>
<div style="display:none"><ix:header><ix:resources>
<xbrli:context id="I2024"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
</ix:resources></ix:header></div>
<table>
<tr><td>Total assets</td><td><ix:nonFraction name="us-gaap:Assets" contextRef="I2024" unitRef="usd" decimals="0" id="f1">1,000</ix:nonFraction></td></tr>
<tr><td>Current assets</td><td><ix:nonFraction name="us-gaap:AssetsCurrent" contextRef="I2024" unitRef="usd" decimals="0" id="f2">300</ix:nonFraction></td></tr>
<tr><td>Total liabilities</td><td><ix:nonFraction name="us-gaap:Liabilities" contextRef="I2024" unitRef="usd" decimals="0" id="f3">600</ix:nonFraction></td></tr>
<tr><td>Current liabilities</td><td><ix:nonFraction name="us-gaap:LiabilitiesCurrent" contextRef="I2024" unitRef="usd" decimals="0" id="f4">200</ix:nonFraction></td></tr>
<tr><td>Equity</td><td><ix:nonFraction name="us-gaap:StockholdersEquity" contextRef="I2024" unitRef="usd" decimals="0" id="f5">400</ix:nonFraction></td></tr>
</table></body></html>`

// testMapped carries a gross current-assets line that outscores the real
// subtotal but exceeds total assets.
const testMapped = `{"statements":[{"name":"balance_sheet","facts":[
{"concept":"us-gaap:Assets","label":"Total assets","value":1000,"period_end":"2024-12-31","level":0,"order":1},
{"concept":"acme:TotalCurrentAssetsGross","label":"Total current assets gross","value":1200,"period_end":"2024-12-31","level":1,"order":2},
{"concept":"us-gaap:AssetsCurrent","label":"Current assets","value":300,"period_end":"2024-12-31","level":1,"order":3},
{"concept":"us-gaap:Liabilities","label":"Total liabilities","value":600,"period_end":"2024-12-31","level":0,"order":4},
{"concept":"us-gaap:LiabilitiesCurrent","label":"Current liabilities","value":200,"period_end":"2024-12-31","level":1,"order":5},
{"concept":"us-gaap:StockholdersEquity","label":"Total stockholders equity","value":400,"period_end":"2024-12-31","level":0,"order":6}
]}]}`

const testMetadata = `company: acme
filing_id: acme-10k-2024
market: SEC
form: 10-K
date: "2025-02-15"
`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadFS(fstest.MapFS{
		"defs/test.yaml": &fstest.MapFile{Data: []byte(testComponents)},
	}, "defs")
	require.NoError(t, err)
	return reg
}

func testAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	catalog, err := ratio.LoadCatalog()
	require.NoError(t, err)
	return NewAnalyzer(testRegistry(t), catalog, nil, opts)
}

// writeFiling creates a filing directory holding files.
func writeFiling(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "acme")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func sampleFiling(t *testing.T) string {
	t.Helper()
	return writeFiling(t, map[string]string{
		"acme-20241231.htm": testInline,
		MappedFile:          testMapped,
		MetadataFile:        testMetadata,
	})
}
