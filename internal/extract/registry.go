package extract

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/quote-audit/internal/model"
)

// Confidence defaults. Label matches carry their similarity score;
// pattern fallbacks get a flat, lower confidence.
const (
	DefaultMatchThreshold = 0.78
	PatternConfidence     = 0.65
)

// specDef is one field entry as it appears in an override file. Regexes
// stay as source text until compile.
type specDef struct {
	Name           string   `yaml:"name"`
	Labels         []string `yaml:"labels"`
	Patterns       []string `yaml:"patterns"`
	Kind           string   `yaml:"kind"`
	AdjacentSearch *bool    `yaml:"adjacent_search"`
	MultiCell      bool     `yaml:"multi_cell"`
	MatchThreshold float64  `yaml:"match_threshold"`
}

type specFile struct {
	Fields []specDef `yaml:"fields"`
}

// LoadRegistry returns the built-in field table, overlaid with entries
// from the YAML file at path. An empty path returns the defaults alone.
// Override entries replace same-named fields and append new ones.
func LoadRegistry(path string) (*model.FieldRegistry, error) {
	specs := defaultSpecs()
	if path == "" {
		return model.NewFieldRegistry(specs), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read field spec file %s", path)
	}
	var file specFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "extract: parse field spec file %s", path)
	}

	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}
	for _, def := range file.Fields {
		spec, err := compileSpec(def)
		if err != nil {
			return nil, err
		}
		if i, ok := index[spec.Name]; ok {
			specs[i] = spec
		} else {
			index[spec.Name] = len(specs)
			specs = append(specs, spec)
		}
	}
	return model.NewFieldRegistry(specs), nil
}

func compileSpec(def specDef) (model.FieldSpec, error) {
	if def.Name == "" {
		return model.FieldSpec{}, eris.New("extract: field spec entry missing name")
	}
	kind := model.FieldKind(def.Kind)
	if def.Kind == "" {
		kind = model.KindString
	}
	adjacent := true
	if def.AdjacentSearch != nil {
		adjacent = *def.AdjacentSearch
	}

	spec := model.FieldSpec{
		Name:           def.Name,
		Labels:         def.Labels,
		Kind:           kind,
		AdjacentSearch: adjacent,
		MultiCell:      def.MultiCell,
		MatchThreshold: def.MatchThreshold,
	}
	for _, p := range def.Patterns {
		re, err := regexp.Compile("(?is)" + p)
		if err != nil {
			return model.FieldSpec{}, eris.Wrapf(err, "extract: field %s: compile pattern %q", def.Name, p)
		}
		spec.Patterns = append(spec.Patterns, re)
	}
	return spec, nil
}

// pats compiles pattern sources case-insensitively with dot-matches-all,
// the mode every document scan uses.
func pats(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile("(?is)" + e)
	}
	return out
}

// defaultSpecs is the built-in quote field table. Order matters: fields
// are extracted and reported in this order.
func defaultSpecs() []model.FieldSpec {
	return []model.FieldSpec{
		{
			Name:   "quoteNumber_t_c",
			Labels: []string{"quote number", "quotation number", "solution quotation", "quote #", "quoteid", "quote id"},
			Patterns: pats(
				`(?:quote|quotation)\s*(?:number|#)\s*[:\-]?\s*(\d{5,})`,
				`solution\s+quotation\s+(\d{5,})`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "transactionID_t",
			Labels: []string{"transaction id", "transaction number", "quote transaction id"},
			Patterns: pats(
				`transaction\s*id\s*[:\-]?\s*([A-Z0-9\-]+)`,
				`quote\s*transaction\s*id\s*[:\-]?\s*([A-Z0-9\-]+)`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "quoteNameTextArea_t_c",
			Labels: []string{"quote name", "quote description", "name", "quote"},
			Patterns: pats(
				`(quote\s+\d{5,}\s+for\s+[A-Za-z0-9 ,.\-&]+)`,
				`quote\s*name\s*[:\-]?\s*([A-Za-z0-9 ,.\-&/]+)`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:   "createdDate_t",
			Labels: []string{"quote date", "created date", "date", "pricing date"},
			Patterns: pats(
				`(?:created|quote|pricing)\s*date\s*[:\-]?\s*([\d]{1,2}[-/][A-Za-z]{3}[-/][\d]{4})`,
				`(?:created|quote|pricing)\s*date\s*[:\-]?\s*([\d]{1,2}[-/][\d]{1,2}[-/][\d]{4})`,
			),
			Kind:           model.KindDate,
			AdjacentSearch: true,
		},
		{
			Name:   "expiresOnDate_t_c",
			Labels: []string{"expires on", "valid until", "expiration date", "quote valid until"},
			Patterns: pats(
				`(?:valid\s*until|expires\s*on|expiration\s*date)\s*[:\-]?\s*([\d]{1,2}[-/][A-Za-z]{3}[-/][\d]{4})`,
				`(?:valid\s*until|expires\s*on|expiration\s*date)\s*[:\-]?\s*([\d]{1,2}[-/][\d]{1,2}[-/][\d]{4})`,
			),
			Kind:           model.KindDate,
			AdjacentSearch: true,
		},
		{
			Name:           "status_t",
			Labels:         []string{"status", "quote status"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "incoterm_t_c",
			Labels:         []string{"incoterm", "incoterms"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "paymentTerms_t_c",
			Labels:         []string{"payment terms"},
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:           "orderType_t_c",
			Labels:         []string{"order type"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "priceList_t_c",
			Labels:         []string{"price list", "pricelist"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "currency_t",
			Labels:         []string{"currency"},
			Patterns:       pats(`all\s+amounts\s+are\s+in\s+([A-Z]{3})`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "freightTerms_t_c",
			Labels:         []string{"freight terms"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "contractName_t",
			Labels: []string{"contract name", "contract", "agreement name", "agreement"},
			Patterns: pats(
				`contract\s*name\s*[:\-]?\s*(.+?)(?:\s*(?:contract|agreement|end|start|date|number|payment|incoterm))`,
				`agreement\s*(?:name|for)\s*[:\-]?\s*(.+?)(?:\s*(?:contract|agreement|end|start|date|number|payment|incoterm))`,
				`(?:contract|agreement)\s*name\s*[:\-]?\s*(.+?)(?:\n|$)`,
				`agreement\s+for\s+([\d/]+\s+[A-Za-z0-9\s.,\-]+?)(?:\s*(?:contract|agreement|end|start|date|number|payment|incoterm|quote\s+information))`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
			MatchThreshold: 0.75,
		},
		{
			Name:           "contractStartDate_t",
			Labels:         []string{"contract start date"},
			Patterns:       pats(`contract\s*start\s*date\s*[:\-]?\s*([\dA-Za-z\-\/]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "contractEndDate_t",
			Labels:         []string{"contract end date"},
			Patterns:       pats(`contract\s*end\s*date\s*[:\-]?\s*([\dA-Za-z\-\/]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "lastUpdatedDate_t",
			Labels:         []string{"last updated date", "last updated"},
			Patterns:       pats(`last\s+updated\s*[:\-]?\s*([\dA-Za-z:\-\/ ]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "lastUpdatedBy_t",
			Labels:         []string{"last updated by"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "sellingMotion_t_c",
			Labels:         []string{"selling motion"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "district_t_c",
			Labels:         []string{"district"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteColorRating_t_c",
			Labels:         []string{"quote color rating", "color rating"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "freezePriceFlag_t",
			Labels:         []string{"freeze price", "freeze price flag"},
			Kind:           model.KindBool,
			AdjacentSearch: true,
		},
		{
			Name:           "partialShipAllowedFlag_t",
			Labels:         []string{"partial ship allowed", "partial shipments allowed"},
			Kind:           model.KindBool,
			AdjacentSearch: true,
		},
		{
			Name:           "priceWithinPolicy_t",
			Labels:         []string{"price within policy"},
			Kind:           model.KindBool,
			AdjacentSearch: true,
		},
		{
			Name:           "presentedToCustomer_t_c",
			Labels:         []string{"presented to customer"},
			Kind:           model.KindBool,
			AdjacentSearch: true,
		},
		{
			Name:           "salesRepEmailId_t_c",
			Labels:         []string{"sales rep email", "sales rep email id"},
			Patterns:       pats(`sales\s*rep\s*email\s*[:\-]?\s*([A-Za-z0-9_.+-]+@[A-Za-z0-9_.\-]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "buySellAvailableOptions_t_c",
			Labels:         []string{"buy/sell available options"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "previousUsersLogin_t_c",
			Labels:         []string{"previous users login", "previous user"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "opptyTerritoryId_t_c",
			Labels:         []string{"oppty territory id", "opportunity territory id"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "quoteListPrice_t_c",
			Labels: []string{"list grand total", "total list price", "list total"},
			Patterns: pats(
				`list\s+grand\s+total\s*[:\-]?\s*([$€₹Rs.,\d ]+)`,
				`total\s+list\s+price\s*[:\-]?\s*([$€₹Rs.,\d ]+)`,
			),
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:   "quoteCurrentDiscount_t_c",
			Labels: []string{"total discount", "discount %"},
			Patterns: pats(
				`total\s+discount\s*[:\-]?\s*([\d\.,]+)`,
				`discount\s*%\s*[:\-]?\s*([\d\.,]+)`,
			),
			Kind:           model.KindNumeric,
			AdjacentSearch: true,
		},
		{
			Name:   "quoteNetPrice_t_c",
			Labels: []string{"net grand total", "net total", "grand total (net)"},
			Patterns: pats(
				`net\s+grand\s+total\s*[:\-]?\s*([$€₹Rs.,\d ]+)`,
				`grand\s+total\s*\(net\)\s*[:\-]?\s*([$€₹Rs.,\d ]+)`,
			),
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "extNetPrice_t_c",
			Labels:         []string{"extended net price"},
			Patterns:       pats(`extended\s+net\s+price\s*[:\-]?\s*([$€₹Rs.,\d ]+)`),
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteDesiredNetPrice_t_c",
			Labels:         []string{"desired net price"},
			Patterns:       pats(`desired\s+net\s+price\s*[:\-]?\s*([$€₹Rs.,\d ]+)`),
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteDesiredDiscount_t_c",
			Labels:         []string{"desired discount"},
			Patterns:       pats(`desired\s+discount\s*[:\-]?\s*([\d\.,]+)`),
			Kind:           model.KindNumeric,
			AdjacentSearch: true,
		},
		{
			Name:           "standardProductMargin_t_c",
			Labels:         []string{"standard product margin"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "standardProductMarginUSD_t_c",
			Labels:         []string{"standard product margin usd"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "fullStackMarginUSD_t_c",
			Labels:         []string{"full stack margin usd"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteFullStackOnlyNetPrice_t_c",
			Labels:         []string{"quote full stack only net price"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteTotalCapacityGB_t_c",
			Labels:         []string{"quote total capacity", "total capacity"},
			Kind:           model.KindNumeric,
			AdjacentSearch: true,
		},
		{
			Name:           "guidanceToGreenAmount_t_c",
			Labels:         []string{"guidance to green amount"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "guidanceToYellowAmount_t_c",
			Labels:         []string{"guidance to yellow amount"},
			Kind:           model.KindCurrency,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteGuidanceToGreen_t_c",
			Labels:         []string{"guidance to green %", "guidance to green percent"},
			Kind:           model.KindNumeric,
			AdjacentSearch: true,
		},
		{
			Name:           "gTCRiskMessageString_t_c",
			Labels:         []string{"gtc risk message", "gtc risk"},
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:           "contractNumber_t",
			Labels:         []string{"contract number", "contract #"},
			Patterns:       pats(`contract\s*(?:number|#)\s*[:\-]?\s*([A-Z0-9\-]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "endCustomer_t_c",
			Labels: []string{"end customer", "customer", "quote to"},
			Patterns: pats(
				`end\s+customer\s*[:\-]?\s*(.+?)(?:\n|quote|from|contract)`,
				`quote\s+to\s*[:\-]?\s*(.+?)(?:\n|quote|from|contract)`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:           "quoteFrom_t_c",
			Labels:         []string{"quote from", "from"},
			Patterns:       pats(`quote\s+from\s*[:\-]?\s*(.+?)(?:\n|quote|to|contract)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:           "contactName_t_c",
			Labels:         []string{"contact name", "contact"},
			Patterns:       pats(`contact\s+name\s*[:\-]?\s*(.+?)(?:\n|email|phone|address)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:   "contactEmail_t_c",
			Labels: []string{"contact email", "email"},
			Patterns: pats(
				`email\s*[:\-]?\s*([A-Za-z0-9_.+-]+@[A-Za-z0-9_.\-]+\.[A-Za-z]{2,})`,
				`contact\s+email\s*[:\-]?\s*([A-Za-z0-9_.+-]+@[A-Za-z0-9_.\-]+\.[A-Za-z]{2,})`,
			),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "contingency_t_c",
			Labels:         []string{"contingency"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "quoteType_t_c",
			Labels:         []string{"quote type", "type"},
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "dealRegID_t_c",
			Labels:         []string{"deal reg id", "deal registration id", "deal reg"},
			Patterns:       pats(`deal\s*(?:reg|registration)\s*(?:id|#)?\s*[:\-]?\s*([A-Z0-9\-]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "projectCode_t_c",
			Labels:         []string{"project code", "project"},
			Patterns:       pats(`project\s+code\s*[:\-]?\s*([A-Z0-9\-]+)`),
			Kind:           model.KindString,
			AdjacentSearch: true,
		},
		{
			Name:           "sCSoldToContractName_t_c",
			Labels:         []string{"sold to contract name", "sold to contract"},
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
		{
			Name:           "sCEndCustomerContractName_t_c",
			Labels:         []string{"end customer contract name", "end customer contract"},
			Kind:           model.KindString,
			AdjacentSearch: true,
			MultiCell:      true,
		},
	}
}
