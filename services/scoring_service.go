package services

import (
	"sort"

	"erp-matcher/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sub-score weights. Must sum to 100 so the composite stays on the 0–100 scale.
const (
	weightModuleFit   = 35
	weightIndustryExp = 25
	weightBudgetFit   = 20
	weightRegionFit   = 10
	weightSizeFit     = 10
)

// ScoringService computes the composite match score, its breakdown and the
// ordered human-readable reasons shown on the match card
type ScoringService struct {
	printer *message.Printer
}

func NewScoringService() *ScoringService {
	return &ScoringService{
		// Grouped number formatting for budget figures ("1,250,000")
		printer: message.NewPrinter(language.English),
	}
}

// ScoreResult is what the match engine stores on the match at creation time
type ScoreResult struct {
	Score     int
	Breakdown map[string]int
	Reasons   []string
}

// Score rates a partner against a brief. All sub-scores are 0–100; the
// composite is the weighted sum, then each breakdown entry records the
// weighted contribution so the breakdown sums back to the composite.
func (s *ScoringService) Score(brief *models.Brief, partner *models.Partner) ScoreResult {
	moduleFit, coveredModules := s.moduleFit(brief, partner)
	industryExp := s.industryExp(brief, partner)
	budgetFit := s.budgetFit(brief, partner)
	regionFit := s.regionFit(brief, partner)
	sizeFit := s.sizeFit(brief, partner)

	breakdown := map[string]int{
		"moduleFit":   moduleFit * weightModuleFit / 100,
		"industryExp": industryExp * weightIndustryExp / 100,
		"budgetFit":   budgetFit * weightBudgetFit / 100,
		"regionFit":   regionFit * weightRegionFit / 100,
		"sizeFit":     sizeFit * weightSizeFit / 100,
	}

	score := 0
	for _, contribution := range breakdown {
		score += contribution
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	reasons := s.reasons(brief, partner, breakdown, coveredModules)

	return ScoreResult{Score: score, Breakdown: breakdown, Reasons: reasons}
}

// moduleFit: share of requested modules the partner covers
func (s *ScoringService) moduleFit(brief *models.Brief, partner *models.Partner) (int, int) {
	wanted := brief.ModuleList()
	if len(wanted) == 0 {
		return 50, 0 // no module requirements, neutral
	}

	offered := make(map[string]bool, len(partner.ModuleList()))
	for _, m := range partner.ModuleList() {
		offered[m] = true
	}

	covered := 0
	for _, m := range wanted {
		if offered[m] {
			covered++
		}
	}
	return covered * 100 / len(wanted), covered
}

// industryExp: direct industry experience beats none
func (s *ScoringService) industryExp(brief *models.Brief, partner *models.Partner) int {
	if brief.Industry == "" {
		return 50
	}
	for _, industry := range partner.IndustryList() {
		if industry == brief.Industry {
			return 100
		}
	}
	return 30
}

// budgetFit: inside the partner's band is perfect, outside decays with distance
func (s *ScoringService) budgetFit(brief *models.Brief, partner *models.Partner) int {
	if brief.Budget <= 0 {
		return 50
	}
	min, max := partner.MinBudget, partner.MaxBudget

	if brief.Budget >= min && (max == 0 || brief.Budget <= max) {
		return 100
	}

	// Distance to the nearest band edge, relative to the brief budget
	var gap int64
	if brief.Budget < min {
		gap = min - brief.Budget
	} else {
		gap = brief.Budget - max
	}
	penalty := int(gap * 100 / brief.Budget)
	if penalty > 80 {
		penalty = 80
	}
	return 100 - penalty - 20 // cap below a perfect in-band score
}

func (s *ScoringService) regionFit(brief *models.Brief, partner *models.Partner) int {
	if brief.Region == "" {
		return 50
	}
	for _, region := range partner.RegionList() {
		if region == brief.Region {
			return 100
		}
	}
	return 40
}

var sizeOrder = map[string]int{
	"micro":      0,
	"small":      1,
	"medium":     2,
	"large":      3,
	"enterprise": 4,
}

// sizeFit: partners do best with clients near their usual company size
func (s *ScoringService) sizeFit(brief *models.Brief, partner *models.Partner) int {
	briefSize, ok1 := sizeOrder[brief.CompanySize]
	partnerSize, ok2 := sizeOrder[partner.CompanySize]
	if !ok1 || !ok2 {
		return 50
	}
	gap := briefSize - partnerSize
	if gap < 0 {
		gap = -gap
	}
	switch gap {
	case 0:
		return 100
	case 1:
		return 70
	default:
		return 40
	}
}

// reasons builds the ordered justification strings, strongest factor first
func (s *ScoringService) reasons(brief *models.Brief, partner *models.Partner, breakdown map[string]int, coveredModules int) []string {
	type factor struct {
		name         string
		contribution int
	}
	factors := make([]factor, 0, len(breakdown))
	for name, contribution := range breakdown {
		factors = append(factors, factor{name, contribution})
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].contribution != factors[j].contribution {
			return factors[i].contribution > factors[j].contribution
		}
		return factors[i].name < factors[j].name // stable order for equal contributions
	})

	var reasons []string
	for _, f := range factors {
		switch f.name {
		case "moduleFit":
			if coveredModules > 0 {
				reasons = append(reasons, s.printer.Sprintf("Covers %d of %d requested modules", coveredModules, len(brief.ModuleList())))
			}
		case "industryExp":
			if f.contribution >= weightIndustryExp {
				reasons = append(reasons, s.printer.Sprintf("Proven experience in %s", brief.Industry))
			}
		case "budgetFit":
			if f.contribution >= weightBudgetFit && brief.Budget > 0 {
				reasons = append(reasons, s.printer.Sprintf("Comfortable with your €%d budget", brief.Budget))
			}
		case "regionFit":
			if f.contribution >= weightRegionFit && brief.Region != "" {
				reasons = append(reasons, s.printer.Sprintf("Delivers in %s", brief.Region))
			}
		case "sizeFit":
			if f.contribution >= weightSizeFit && brief.CompanySize != "" {
				reasons = append(reasons, s.printer.Sprintf("Works with %s-sized companies like yours", brief.CompanySize))
			}
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Suggested for you")
	}
	return reasons
}
