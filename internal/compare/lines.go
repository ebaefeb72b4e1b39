package compare

import (
	"fmt"
	"strings"

	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/model"
)

// Per-line key chains, first present wins. Exports vary by transaction
// vintage; newer payloads carry rollup keys alongside the legacy ones.
var (
	linePartKeys     = []string{"_part_number", "_part_display_number", "_line_display_name"}
	lineQuantityKeys = []string{"_price_quantity", "_line_bom_item_quantity", "quantity"}
	lineUnitListKeys = []string{"_price_item_price_each", "_price_unit_price_each", "_price_list_price_each", "unitListPrice"}
	lineUnitNetKeys  = []string{"netPrice_l", "netPrice_l_c", "unitNetPrice", "resellerUnitNetPricefloat_l_c", "endCustomerUnitNetPricefloat_l_c"}
	lineExtListKeys  = []string{"_price_extended_price", "extendedListPrice", "extListPrice_l_c", "listAmount_l", "listPriceRollup_l"}
	lineExtNetKeys   = []string{"netAmount_l", "netAmountRollup_l", "netPriceRollup_l", "extendedNetPrice", "extendedNetPriceUSD_l_c", "rollUpNetPrice_l_c"}
	lineDiscountKeys = []string{"discountPercent_l", "currentDiscount_l_c", "currentDiscountEndCustomer_l_c", "discountPercent"}
)

// compareLines checks every authoritative line against the document's
// line-item table and reconciles the line sums against both headers.
// Document rows never present in the transaction are not flagged; the
// transaction is the source of truth for what the quote should contain.
func (c *Comparator) compareLines(api map[string]any, rec *model.DocumentRecord, res *model.ValidationResult) {
	lines := apiLines(api)
	if len(lines) == 0 || len(rec.LineItems) == 0 {
		return
	}

	res.Details = append(res.Details, model.FieldResult{
		FieldName: "line_items_count",
		Section:   model.SectionLines,
		Expected:  len(lines),
		Found:     len(rec.LineItems),
		Match:     len(lines) == len(rec.LineItems),
	})

	byPart := make(map[string]*model.LineItem, len(rec.LineItems))
	for i := range rec.LineItems {
		if p := strings.TrimSpace(rec.LineItems[i].PartNumber); p != "" {
			byPart[p] = &rec.LineItems[i]
		}
	}

	var apiListTotal, apiNetTotal float64
	for _, line := range lines {
		raw := lineAny(line, linePartKeys...)
		part, _ := toString(raw)
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		qty, qtyOK := lineValue(line, false, lineQuantityKeys...)
		unitList, ulOK := lineValue(line, false, lineUnitListKeys...)
		unitNet, unOK := lineValue(line, false, lineUnitNetKeys...)
		extList, elOK := lineValue(line, false, lineExtListKeys...)
		extNet, enOK := lineValue(line, false, lineExtNetKeys...)

		if elOK {
			apiListTotal += extList
		} else if qtyOK && ulOK {
			apiListTotal += qty * unitList
		}
		if enOK {
			apiNetTotal += extNet
		} else if qtyOK && unOK {
			apiNetTotal += qty * unitNet
		}

		docRow := findDocLine(byPart, rec.LineItems, part)

		pr := model.FieldResult{
			FieldName: "_part_number",
			Section:   model.SectionLines,
			Expected:  part,
		}
		if docRow != nil {
			pr.Found = docRow.PartNumber
			pr.Match = stringsMatch(part, docRow.PartNumber, 1)
		} else {
			pr.Message = "Part not found in document line items"
		}
		res.Details = append(res.Details, pr)

		if docRow == nil {
			continue
		}

		if docRow.Quantity != nil && qtyOK {
			res.Details = append(res.Details, model.FieldResult{
				FieldName: "quantity",
				Section:   model.SectionLines,
				Expected:  int(qty),
				Found:     *docRow.Quantity,
				Match:     int(qty) == *docRow.Quantity,
			})
		}

		c.lineAmount(res, "unitListPrice", unitList, ulOK, docRow.UnitListPrice, "")
		c.lineAmount(res, "unitNetPrice", unitNet, unOK, docRow.UnitNetPrice, "")
		c.lineAmount(res, "extendedListPrice", extList, elOK, docRow.ExtendedListPrice, "")
		c.lineAmount(res, "extendedNetPrice", extNet, enOK, docRow.ExtendedNetPrice,
			"CRITICAL: Extended Net Price = Quantity × Unit Net Price")

		c.calcExtended(res, "calc_ext_list_"+part, "Unit List", qty, qtyOK, unitList, ulOK, extList, elOK, docRow.ExtendedListPrice)
		c.calcExtended(res, "calc_ext_net_"+part, "Unit Net", qty, qtyOK, unitNet, unOK, extNet, enOK, docRow.ExtendedNetPrice)

		if docRow.DiscountPercent != nil {
			if disc, ok := lineValue(line, false, lineDiscountKeys...); ok {
				e, f := coerce.Round2(disc), coerce.Round2(*docRow.DiscountPercent)
				res.Details = append(res.Details, model.FieldResult{
					FieldName: "discountPercent",
					Section:   model.SectionLines,
					Expected:  e,
					Found:     f,
					Match:     c.percentsMatch(e, f),
				})
			}
		}

		c.lineRollup(res, "listPrice_l_c_"+part, line["listPrice_l_c"], docRow.ExtendedListPrice)
		c.lineRollup(res, "rollUpNetPrice_l_c_"+part, line["rollUpNetPrice_l_c"], docRow.ExtendedNetPrice)
		c.lineRollup(res, "rollUpResUnitNetPrice_l_c_"+part, line["rollUpResUnitNetPrice_l_c"], docRow.UnitNetPrice)

		// Category rollups have no document counterpart; recorded for the
		// report, never counted as a mismatch.
		for _, k := range []string{"storageTotal_l_c", "serviceTotal_l_c", "hardwareTotal_l_c"} {
			if f, ok := numericNonZero(line[k]); ok {
				res.Details = append(res.Details, model.FieldResult{
					FieldName: k + "_" + part,
					Section:   model.SectionLineTotals,
					Expected:  coerce.Round2(f),
					Found:     nil,
					Match:     true,
				})
			}
		}
	}

	var docListTotal, docNetTotal float64
	for _, it := range rec.LineItems {
		if it.ExtendedListPrice != nil {
			docListTotal += *it.ExtendedListPrice
		}
		if it.ExtendedNetPrice != nil {
			docNetTotal += *it.ExtendedNetPrice
		}
	}

	c.grandTotal(res, api, "calc_grand_list_total", apiListTotal,
		[]string{"quoteListPrice_t_c", "totalOneTimeListAmount_t"},
		"List Grand Total", "Extended List Prices")
	c.grandTotal(res, api, "calc_grand_net_total", apiNetTotal,
		[]string{"quoteNetPrice_t_c", "totalOneTimeNetAmount_t", "_transaction_total"},
		"Net Grand Total", "Extended Net Prices")

	c.docTotal(res, rec, "calc_doc_list_total", docListTotal, "quoteListPrice_t_c", "Extended List Prices")
	c.docTotal(res, rec, "calc_doc_net_total", docNetTotal, "quoteNetPrice_t_c", "Extended Net Prices")

	c.discountCalc(res, api)
}

// lineAmount compares one authoritative line amount against the matching
// document cell. Skipped when either side is absent.
func (c *Comparator) lineAmount(res *model.ValidationResult, name string, apiVal float64, apiOK bool, doc *float64, critical string) {
	if !apiOK || doc == nil {
		return
	}
	e, f := coerce.Round2(apiVal), coerce.Round2(*doc)
	r := model.FieldResult{
		FieldName: name,
		Section:   model.SectionLines,
		Expected:  e,
		Found:     f,
		Match:     c.amountsMatch(e, f),
	}
	if !r.Match && critical != "" {
		r.Message = critical
	}
	res.Details = append(res.Details, r)
}

// calcExtended checks quantity × unit price against the stated extended
// price, preferring the authoritative extended amount and falling back to
// the document's when the export omits it.
func (c *Comparator) calcExtended(res *model.ValidationResult, name, priceLabel string,
	qty float64, qtyOK bool, unit float64, unitOK bool, ext float64, extOK bool, docExt *float64) {
	if !qtyOK || qty == 0 || !unitOK || unit == 0 {
		return
	}
	actual, ok := ext, extOK
	if !ok && docExt != nil {
		actual, ok = *docExt, true
	}
	if !ok || actual == 0 {
		return
	}
	expected, found := coerce.Round2(qty*unit), coerce.Round2(actual)
	r := model.FieldResult{
		FieldName: name,
		Section:   model.SectionCalculations,
		Expected:  expected,
		Found:     found,
		Match:     c.amountsMatch(expected, found),
	}
	if !r.Match {
		r.Message = fmt.Sprintf("Qty(%v) × %s(%v) = %.2f, Found: %.2f", qty, priceLabel, unit, expected, found)
	}
	res.Details = append(res.Details, r)
}

// lineRollup compares a single rollup key against a document amount when
// both carry a non-zero value.
func (c *Comparator) lineRollup(res *model.ValidationResult, name string, apiRaw any, doc *float64) {
	f, ok := numericNonZero(apiRaw)
	if !ok || doc == nil {
		return
	}
	e, d := coerce.Round2(f), coerce.Round2(*doc)
	res.Details = append(res.Details, model.FieldResult{
		FieldName: name,
		Section:   model.SectionLines,
		Expected:  e,
		Found:     d,
		Match:     c.amountsMatch(e, d),
	})
}

// grandTotal reconciles the summed authoritative line amounts against the
// transaction header total.
func (c *Comparator) grandTotal(res *model.ValidationResult, api map[string]any, name string, sum float64, headerKeys []string, totalLabel, sumLabel string) {
	if sum <= 0 {
		return
	}
	header, ok := toFloat(firstAPI(api, headerKeys...))
	if !ok || header == 0 {
		return
	}
	e, f := coerce.Round2(header), coerce.Round2(sum)
	r := model.FieldResult{
		FieldName: name,
		Section:   model.SectionCalculations,
		Expected:  e,
		Found:     f,
		Match:     c.amountsMatch(e, f),
	}
	if r.Match {
		r.Message = fmt.Sprintf("Sum of %s = %.2f", sumLabel, f)
	} else {
		r.Message = fmt.Sprintf("CRITICAL: %s (%.2f) should equal sum of all %s (%.2f)", totalLabel, e, sumLabel, f)
	}
	res.Details = append(res.Details, r)
}

// docTotal reconciles the document's own line sums against its header
// total, catching tables that disagree with the summary block they sit
// under.
func (c *Comparator) docTotal(res *model.ValidationResult, rec *model.DocumentRecord, name string, sum float64, headerKey, sumLabel string) {
	if sum <= 0 {
		return
	}
	header, ok := toFloat(rec.Field(headerKey))
	if !ok || header == 0 {
		return
	}
	e, f := coerce.Round2(header), coerce.Round2(sum)
	res.Details = append(res.Details, model.FieldResult{
		FieldName: name,
		Section:   model.SectionCalculations,
		Expected:  e,
		Found:     f,
		Match:     c.amountsMatch(e, f),
		Message:   fmt.Sprintf("Document: Sum of %s = %.2f", sumLabel, f),
	})
}

// discountCalc derives the overall discount from the header list and net
// totals and checks it against the stated discount percentage.
func (c *Comparator) discountCalc(res *model.ValidationResult, api map[string]any) {
	listRaw := firstAPI(api, "quoteListPrice_t_c", "totalOneTimeListAmount_t")
	netRaw := firstAPI(api, "quoteNetPrice_t_c", "totalOneTimeNetAmount_t", "_transaction_total")
	list, lok := toFloat(listRaw)
	net, nok := toFloat(netRaw)
	if !lok || !nok || list == 0 || net == 0 {
		return
	}
	calc := (list - net) / list * 100
	disc, ok := toFloat(firstAPI(api, "transactionTotalDiscountPercent_t", "quoteCurrentDiscount_t_c"))
	if !ok || disc == 0 {
		return
	}
	e, f := coerce.Round2(disc), coerce.Round2(calc)
	res.Details = append(res.Details, model.FieldResult{
		FieldName: "calc_discount_percent",
		Section:   model.SectionCalculations,
		Expected:  e,
		Found:     f,
		Match:     c.percentsMatch(e, f),
		Message:   fmt.Sprintf("(List %v - Net %v) / List × 100 = %.2f%%", listRaw, netRaw, f),
	})
}

// apiLines digs the line array out of the transaction payload. The REST
// shape nests it under transactionLine.items; some exports carry a bare
// array or a top-level items key instead.
func apiLines(api map[string]any) []map[string]any {
	raw, ok := api["transactionLine"]
	if !ok {
		raw = api["items"]
	}
	if m, ok := raw.(map[string]any); ok {
		raw = m["items"]
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	lines := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			lines = append(lines, m)
		}
	}
	return lines
}

// lineAny returns the first present value under keys, unwrapping value
// envelopes. Empty strings, zeros, and false do not count as present.
func lineAny(line map[string]any, keys ...string) any {
	for _, k := range keys {
		v := Unwrap(line[k])
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return v
			}
		case bool:
			if t {
				return v
			}
		case float64:
			if t != 0 {
				return v
			}
		case int:
			if t != 0 {
				return v
			}
		default:
			return v
		}
	}
	return nil
}

// lineValue returns the first numeric value under keys. Zeros are skipped
// unless acceptZero, since exports blank unused price fields to 0.
func lineValue(line map[string]any, acceptZero bool, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := line[k]
		if !ok || raw == nil {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			continue
		}
		if f == 0 && !acceptZero {
			continue
		}
		return f, true
	}
	return 0, false
}

// numericNonZero coerces v to a non-zero float.
func numericNonZero(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || f == 0 {
		return 0, false
	}
	return f, true
}

// findDocLine resolves an authoritative part number to a document row:
// exact match first, then case-insensitive containment either way, which
// tolerates suffixed SKU variants.
func findDocLine(byPart map[string]*model.LineItem, items []model.LineItem, part string) *model.LineItem {
	if hit, ok := byPart[part]; ok {
		return hit
	}
	lp := strings.ToLower(part)
	for i := range items {
		ip := strings.ToLower(strings.TrimSpace(items[i].PartNumber))
		if ip == "" {
			continue
		}
		if strings.Contains(lp, ip) || strings.Contains(ip, lp) {
			return &items[i]
		}
	}
	return nil
}
