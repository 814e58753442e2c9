package ixbrl

const sampleMarkup = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"><body>
<div style="display:none"><ix:header><ix:resources>
<xbrli:context id="FY2024"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period></xbrli:context>
<xbrli:context id="FY2023"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:startDate>2023-01-01</xbrli:startDate><xbrli:endDate>2023-12-31</xbrli:endDate></xbrli:period></xbrli:context>
<xbrli:context id="I2024"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:context id="I2023"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:context id="Cover"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2025-02-15</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:context id="I2024_Seg"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000001</xbrli:identifier><xbrli:segment><xbrldi:explicitMember dimension="us-gaap:StatementBusinessSegmentsAxis">acme:RetailMember</xbrldi:explicitMember></xbrli:segment></xbrli:entity><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
</ix:resources></ix:header></div>
<table>
<tr><td>Total assets</td><td><ix:nonFraction name="us-gaap:Assets" contextRef="I2024" unitRef="usd" decimals="-3" scale="3" id="f1">1,234</ix:nonFraction></td></tr>
<tr><td>Total assets prior</td><td><ix:nonFraction name="us-gaap:Assets" contextRef="I2023" unitRef="usd" decimals="-3" scale="3" id="f2">1,100</ix:nonFraction></td></tr>
<tr><td>Segment assets</td><td><ix:nonFraction name="us-gaap:Assets" contextRef="I2024_Seg" unitRef="usd" decimals="-3" scale="3" id="f3">400</ix:nonFraction></td></tr>
<tr><td>Net loss</td><td>(<ix:nonFraction name="us-gaap:NetIncomeLoss" contextRef="FY2024" unitRef="usd" decimals="-3" scale="3" sign="-" id="f4">1,234</ix:nonFraction>)</td></tr>
<tr><td>Impairment</td><td><ix:nonFraction name="us-gaap:AssetImpairmentCharges" contextRef="FY2024" unitRef="usd" scale="6" format="ixt:fixed-zero" id="f5">—</ix:nonFraction></td></tr>
<tr><td>EPS</td><td><ix:nonFraction name="us-gaap:EarningsPerShareBasic" contextRef="FY2024" unitRef="usdPerShare" decimals="2" id="f6">$1.23</ix:nonFraction></td></tr>
<tr><td>Shares</td><td><ix:nonFraction name="dei:EntityCommonStockSharesOutstanding" contextRef="Cover" unitRef="shares" decimals="0" id="f7">15,000,000</ix:nonFraction></td></tr>
<tr><td>Footnote</td><td><ix:nonFraction name="us-gaap:OtherAssets" contextRef="I2024" unitRef="usd" id="f8">n/a</ix:nonFraction></td></tr>
<tr><td>Revenue</td><td><ix:nonFraction name="us-gaap:Revenues" contextRef="FY2024" unitRef="usd" scale="6" decimals="-5" id="f9"><span>12.5</span></ix:nonFraction></td></tr>
</table></body></html>`

const sampleInstance = `<?xml version="1.0" encoding="utf-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2024" xmlns:xbrldi="http://xbrl.org/2006/xbrldi">
  <xbrli:context id="c1"><xbrli:entity><xbrli:identifier scheme="x">1</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:context id="c2"><xbrli:entity><xbrli:identifier scheme="x">1</xbrli:identifier><xbrli:segment><xbrldi:explicitMember dimension="a:B">a:C</xbrldi:explicitMember></xbrli:segment></xbrli:entity><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:context id="d1"><xbrli:entity><xbrli:identifier scheme="x">1</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period></xbrli:context>
  <xbrli:unit id="usd"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
  <us-gaap:Assets contextRef="c1" unitRef="usd" decimals="-3">1000000</us-gaap:Assets>
  <us-gaap:Assets contextRef="c2" unitRef="usd" decimals="-3">250000</us-gaap:Assets>
  <us-gaap:NetIncomeLoss contextRef="d1" unitRef="usd" decimals="-3">-42000</us-gaap:NetIncomeLoss>
  <us-gaap:SomeText contextRef="d1">words</us-gaap:SomeText>
</xbrli:xbrl>`
