package compare

import "github.com/sells-group/quote-audit/internal/model"

// attrKind selects the comparison applied to an attribute.
type attrKind int

const (
	kindString attrKind = iota
	kindIdentifier
	kindNumeric
	kindPercent
	kindDate
	kindBool
)

// attribute is one row of the comparison catalog: which authoritative keys
// feed it, which document field it reads, and how the sides are judged.
type attribute struct {
	name      string // document field key; doubles as the result name
	section   string
	kind      attrKind
	threshold float64  // string similarity floor; 1 demands equality
	apiKeys   []string // fallback chain, first present wins; nil means {name}
	optional  bool     // compared only when the authoritative side has a value
	critical  string   // message attached on mismatch
}

// catalog is the declarative comparison table. Core rows produce a result
// whenever the document carries a value; optional rows additionally require
// the authoritative side. Adding an attribute means adding a row.
func catalog() []attribute {
	return []attribute{
		{name: "quoteNumber_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.92,
			apiKeys: []string{"quoteNumber_t_c", "_document_number", "_id"}},
		{name: "transactionID_t", section: model.SectionHeader, kind: kindIdentifier,
			apiKeys: []string{"transactionID_t", "quoteTransactionID_t_c", "bs_id", "_id", "sourceBS_ID_t_c"}},
		{name: "quoteNetPrice_t_c", section: model.SectionSummary, kind: kindNumeric,
			apiKeys:  []string{"quoteNetPrice_t_c", "extNetPrice_t_c", "netPrice_t_c", "totalOneTimeNetAmount_t", "_transaction_total"},
			critical: "CRITICAL: Net Grand Total validation"},
		{name: "quoteListPrice_t_c", section: model.SectionSummary, kind: kindNumeric,
			apiKeys:  []string{"quoteListPrice_t_c", "totalOneTimeListAmount_t", "totalListPrice_t_c"},
			critical: "CRITICAL: List Grand Total validation (Unit prices sum to this)"},
		{name: "quoteCurrentDiscount_t_c", section: model.SectionSummary, kind: kindPercent,
			apiKeys: []string{"transactionTotalDiscountPercent_t", "quoteCurrentDiscount_t_c"}},
		{name: "currency_t", section: model.SectionHeader, kind: kindString, threshold: 1},
		{name: "priceList_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.95},
		{name: "status_t", section: model.SectionHeader, kind: kindString, threshold: 0.9,
			apiKeys: []string{"quoteStatus_t_c", "status_t"}},
		{name: "createdDate_t", section: model.SectionHeader, kind: kindDate},
		{name: "expiresOnDate_t_c", section: model.SectionHeader, kind: kindDate},
		{name: "incoterm_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.92},
		{name: "paymentTerms_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.92},
		{name: "orderType_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.92},
		{name: "quoteNameTextArea_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9,
			apiKeys: []string{"quoteNameTextArea_t_c", "transactionName_t"}},

		// Optional attributes; present on a minority of transactions.
		{name: "freightTerms_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "contractName_t", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "contractNumber_t", section: model.SectionHeader, kind: kindIdentifier, optional: true},
		{name: "contractStartDate_t", section: model.SectionHeader, kind: kindDate, optional: true},
		{name: "contractEndDate_t", section: model.SectionHeader, kind: kindDate, optional: true},
		{name: "lastUpdatedDate_t", section: model.SectionHeader, kind: kindDate, optional: true},
		{name: "lastUpdatedBy_t", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "sellingMotion_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "district_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "quoteColorRating_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "endCustomer_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "quoteFrom_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "contactName_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "contactEmail_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "quoteType_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "dealRegID_t_c", section: model.SectionHeader, kind: kindIdentifier, optional: true},
		{name: "projectCode_t_c", section: model.SectionHeader, kind: kindString, threshold: 0.9, optional: true},
		{name: "freezePriceFlag_t", section: model.SectionHeader, kind: kindBool, optional: true},
		{name: "partialShipAllowedFlag_t", section: model.SectionHeader, kind: kindBool, optional: true},
		{name: "priceWithinPolicy_t", section: model.SectionHeader, kind: kindBool, optional: true},
		{name: "presentedToCustomer_t_c", section: model.SectionHeader, kind: kindBool, optional: true},

		{name: "extNetPrice_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "quoteDesiredNetPrice_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "quoteDesiredDiscount_t_c", section: model.SectionSummary, kind: kindPercent, optional: true},
		{name: "standardProductMarginUSD_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "fullStackMarginUSD_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "quoteTotalCapacityGB_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "guidanceToGreenAmount_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
		{name: "guidanceToYellowAmount_t_c", section: model.SectionSummary, kind: kindNumeric, optional: true},
	}
}
