package extract

import (
	"sort"
	"strings"

	"github.com/sells-group/quote-audit/internal/fuzzy"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
)

// Anchors that fuzzy-match an entity label but belong to another field.
var entityAnchorStops = []string{"contract start", "contract end", "contract number", "contract #"}

// entityCandidate is an entity-shaped cell spotted near a matched label.
type entityCandidate struct {
	value string
	ref   string
	score float64
}

// matchLabel scores cell text against each candidate label. An exact match
// after normalization short-circuits to 1.0, otherwise the best similarity
// ratio wins.
func matchLabel(text string, labels []string) (float64, string) {
	textNorm := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(text), "_", " "))
	textNorm = strings.TrimRight(textNorm, ": \t\r\n")
	best := 0.0
	bestLabel := ""
	for _, label := range labels {
		labelNorm := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(label), ":", ""))
		if labelNorm == "" {
			continue
		}
		if textNorm == labelNorm {
			return 1.0, label
		}
		if r := fuzzy.Ratio(textNorm, labelNorm); r > best {
			best = r
			bestLabel = label
		}
	}
	return best, bestLabel
}

// locate walks every table cell in order, anchors on the best label match,
// and collects the value beside or below it. Only a strictly higher score
// replaces the current best, so earlier tables and rows win ties.
//
// Entity-oriented fields carry extra guards: anchors that are really a
// start date or contract number are skipped, a person's name next to the
// label disqualifies the anchor, and an entity-shaped cell found nearby can
// override a weaker direct hit.
func locate(doc *grid.Document, spec model.FieldSpec) (string, string, float64) {
	threshold := spec.MatchThreshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	var (
		bestValue  string
		bestRef    string
		bestScore  float64
		candidates []entityCandidate
	)

	for ti, table := range doc.Tables {
		rows, cols := table.Rows(), table.Cols()
		for ri := 0; ri < rows; ri++ {
			for ci := 0; ci < cols; ci++ {
				raw := table.Cell(ri, ci)
				cellText := grid.CleanText(raw)
				if cellText == "" {
					continue
				}
				labelScore, matchedLabel := matchLabel(cellText, spec.Labels)
				if labelScore < threshold {
					continue
				}

				entityMatch := strings.Contains(strings.ToLower(matchedLabel), "contract")
				if entityMatch {
					low := strings.ToLower(cellText)
					if containsAnyPhrase(low, entityAnchorStops) {
						continue
					}
					switch strings.TrimSpace(low) {
					case "quote information", "contract name", "agreement name":
						continue
					}
					// Fuzzy hits below this bar are usually "contact name".
					if labelScore < 0.85 {
						continue
					}
					if next := grid.CleanText(table.Cell(ri, ci+1)); next != "" && isLikelyPersonName(next) {
						continue
					}
					candidates = append(candidates, scanEntityCandidates(table, ti, ri, ci, labelScore)...)
				}

				value := ""
				if strings.Contains(raw, ":") {
					parts := strings.SplitN(raw, ":", 2)
					if looksLikeLabel(parts[0]) {
						if inline := grid.CleanText(parts[1]); inline != "" {
							value = inline
							if entityMatch {
								value = cleanEntityName(value)
							}
						}
					}
				}
				if spec.AdjacentSearch && value == "" {
					maxCells := 5
					if spec.MultiCell && entityMatch {
						maxCells = 10
					}
					value = collectHorizontal(table, ri, ci, spec.MultiCell, maxCells, entityMatch)
					if entityMatch && value != "" {
						if isLikelyPersonName(value) {
							continue
						}
						value = cleanEntityName(value)
					}
				}
				if spec.AdjacentSearch && value == "" {
					value = collectVertical(table, ri, ci, spec.MultiCell)
					if entityMatch && value != "" {
						if isLikelyPersonName(value) {
							continue
						}
						value = cleanEntityName(value)
					}
				}
				if value == "" {
					continue
				}
				if labelScore > bestScore {
					bestScore = labelScore
					bestValue = value
					bestRef = grid.CellRef(ti, ri, ci)
				}
			}
		}
	}

	// An entity-shaped candidate beats the direct hit when it scored higher
	// or when the direct hit turned out to be a person after all.
	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		top := candidates[0]
		if top.score > bestScore || (bestValue != "" && isLikelyPersonName(bestValue)) {
			bestValue = cleanEntityName(top.value)
			bestRef = top.ref
			bestScore = top.score
		}
	}

	return bestValue, bestRef, bestScore
}

// scanEntityCandidates looks past an anchored entity label for cells shaped
// like a company agreement title. Same-row hits outrank hits in the rows
// directly above and below.
func scanEntityCandidates(t grid.Table, tableIdx, row, col int, score float64) []entityCandidate {
	var found []entityCandidate
	rows, cols := t.Rows(), t.Cols()
	for off := 1; off < 10 && col+off < cols; off++ {
		cell := grid.CleanText(t.Cell(row, col+off))
		if cell == "" || isLikelyPersonName(cell) {
			continue
		}
		for _, re := range candidateEntityRes {
			if re.MatchString(cell) {
				found = append(found, entityCandidate{
					value: cell,
					ref:   grid.CellRef(tableIdx, row, col+off),
					score: score + 0.2,
				})
				break
			}
		}
	}
	for _, rowOff := range []int{-1, 1} {
		ri := row + rowOff
		if ri < 0 || ri >= rows {
			continue
		}
		for colOff := -2; colOff <= 2; colOff++ {
			ci := col + colOff
			if ci < 0 || ci >= cols {
				continue
			}
			cell := grid.CleanText(t.Cell(ri, ci))
			if cell == "" || isLikelyPersonName(cell) {
				continue
			}
			for _, re := range candidateEntityRes {
				if re.MatchString(cell) {
					found = append(found, entityCandidate{
						value: cell,
						ref:   grid.CellRef(tableIdx, ri, ci),
						score: score + 0.15,
					})
					break
				}
			}
		}
	}
	return found
}

func containsAnyPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
