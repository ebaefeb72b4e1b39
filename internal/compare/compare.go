// Package compare audits extracted quote documents against authoritative
// CPQ transactions. A declarative attribute catalog drives typed,
// tolerance-aware field comparisons; line items are matched by part number
// and independently recomputed totals are cross-checked.
package compare

import (
	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/model"
)

// Options tune the tolerances and date formats comparisons run with.
type Options struct {
	NumericTolerance    float64
	PercentageTolerance float64
	DateLayouts         []string
}

// DefaultOptions returns the tolerances quotes are audited with unless
// configured otherwise.
func DefaultOptions() Options {
	return Options{
		NumericTolerance:    0.01,
		PercentageTolerance: 0.01,
		DateLayouts:         coerce.DateLayouts,
	}
}

// Comparator checks one document record against one transaction payload.
type Comparator struct {
	opts Options
}

// New returns a Comparator using opts as given. Zero tolerances compare
// amounts exactly; nil DateLayouts falls back to coerce.DateLayouts.
func New(opts Options) *Comparator {
	return &Comparator{opts: opts}
}

// Compare runs every applicable catalog attribute, the line-item
// comparisons, and the cross-check calculations, returning the aggregated
// result. Fields the document carries no value for are skipped entirely:
// missing document data is never scored as a mismatch.
func (c *Comparator) Compare(api map[string]any, rec *model.DocumentRecord) *model.ValidationResult {
	res := &model.ValidationResult{}

	for _, attr := range catalog() {
		keys := attr.apiKeys
		if keys == nil {
			keys = []string{attr.name}
		}
		apiVal := firstAPI(api, keys...)
		if attr.optional && apiAbsent(apiVal) {
			continue
		}
		docVal := rec.Field(attr.name)
		if docEmpty(docVal) {
			continue
		}
		res.Details = append(res.Details, c.compareAttr(attr, apiVal, docVal))
	}

	c.compareLines(api, rec, res)
	res.Finalize()
	return res
}

func (c *Comparator) compareAttr(attr attribute, apiVal, docVal any) model.FieldResult {
	r := model.FieldResult{
		FieldName: attr.name,
		Section:   attr.section,
		Expected:  apiVal,
		Found:     docVal,
	}

	switch attr.kind {
	case kindNumeric, kindPercent:
		tol := c.opts.NumericTolerance
		if attr.kind == kindPercent {
			tol = c.opts.PercentageTolerance
		}
		var ap, dp *float64
		if v, ok := toFloat(apiVal); ok {
			v = coerce.Round2(v)
			ap, r.Expected = &v, v
		}
		if v, ok := toFloat(docVal); ok {
			v = coerce.Round2(v)
			dp, r.Found = &v, v
		}
		r.Match = coerce.FloatsMatch(ap, dp, tol)

	case kindIdentifier:
		as, _ := toString(apiVal)
		ds, _ := toString(docVal)
		r.Match = coerce.OnlyDigits(as) == coerce.OnlyDigits(ds)

	case kindDate:
		as, _ := toString(apiVal)
		ds, _ := toString(docVal)
		r.Match = datesMatch(as, ds, c.opts.DateLayouts)

	case kindBool:
		av, aok := toBool(apiVal)
		dv, dok := toBool(docVal)
		switch {
		case !aok && !dok:
			r.Match = true
		case aok != dok:
			r.Match = false
		default:
			r.Match = av == dv
		}

	default:
		as, aok := toString(apiVal)
		ds, dok := toString(docVal)
		r.Match = aok && dok && stringsMatch(as, ds, attr.threshold)
	}

	if !r.Match && attr.critical != "" {
		r.Message = attr.critical
	}
	return r
}

func (c *Comparator) amountsMatch(a, b float64) bool {
	return coerce.FloatsMatch(&a, &b, c.opts.NumericTolerance)
}

func (c *Comparator) percentsMatch(a, b float64) bool {
	return coerce.FloatsMatch(&a, &b, c.opts.PercentageTolerance)
}
