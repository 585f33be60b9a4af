package filter

import (
	"sort"
	"strings"

	"localfund/internal/model"
)

// SortMode orders a listing.
type SortMode string

const (
	SortDefault     SortMode = ""
	SortFundingHigh SortMode = "fundingHigh"
	SortFundingLow  SortMode = "fundingLow"
	SortPercentHigh SortMode = "percentHigh"
)

// SortModes lists the modes in the order the UI cycles through them.
var SortModes = []SortMode{SortDefault, SortPercentHigh, SortFundingHigh, SortFundingLow}

// Label returns a short display name.
func (s SortMode) Label() string {
	switch s {
	case SortFundingHigh:
		return "funding ↓"
	case SortFundingLow:
		return "funding ↑"
	case SortPercentHigh:
		return "progress ↓"
	default:
		return "default"
	}
}

// Next returns the mode after s in SortModes.
func (s SortMode) Next() SortMode {
	for i, m := range SortModes {
		if m == s {
			return SortModes[(i+1)%len(SortModes)]
		}
	}
	return SortDefault
}

// SpecialtyQuery is the local filter state of the specialty listing.
type SpecialtyQuery struct {
	Text    string
	Sido    string
	Sigungu string
	Sort    SortMode
}

// Active reports whether any predicate is set.
func (q SpecialtyQuery) Active() bool {
	return strings.TrimSpace(q.Text) != "" || q.Sido != "" || q.Sigungu != ""
}

// Match reports whether s satisfies every active predicate.
func (q SpecialtyQuery) Match(s model.Specialty) bool {
	if q.Sido != "" && s.SidoNm != q.Sido {
		return false
	}
	if q.Sigungu != "" && s.SigunguNm != q.Sigungu {
		return false
	}
	return containsFold(strings.TrimSpace(q.Text), s.Title, s.AreaNm, s.SidoNm, s.SigunguNm)
}

// ApplySpecialties returns the matching specialties in q.Sort order. The input is not modified.
func ApplySpecialties(items []model.Specialty, q SpecialtyQuery) []model.Specialty {
	out := make([]model.Specialty, 0, len(items))
	for _, s := range items {
		if q.Match(s) {
			out = append(out, s)
		}
	}
	sortByFunding(out, q.Sort, func(s model.Specialty) (int64, int64) { return s.Raised(), s.FundingGoalAmount })
	return out
}

// RestaurantQuery is the local filter state of the restaurant listing.
type RestaurantQuery struct {
	Text     string
	Category string
	Sido     string
	Sigungu  string
	Sort     SortMode
}

// Active reports whether any predicate is set.
func (q RestaurantQuery) Active() bool {
	return strings.TrimSpace(q.Text) != "" || q.Category != "" || q.Sido != "" || q.Sigungu != ""
}

// Match reports whether r satisfies every active predicate.
func (q RestaurantQuery) Match(r model.Restaurant) bool {
	if q.Category != "" && !strings.Contains(r.CategoryName, q.Category) {
		return false
	}
	if q.Sido != "" && r.SidoNm != q.Sido {
		return false
	}
	if q.Sigungu != "" && r.SigunguNm != q.Sigungu {
		return false
	}
	return containsFold(strings.TrimSpace(q.Text), r.Name, r.RoadAddressName, r.SidoNm, r.SigunguNm, r.CategoryName)
}

// ApplyRestaurants returns the matching restaurants in q.Sort order. The input is not modified.
func ApplyRestaurants(items []model.Restaurant, q RestaurantQuery) []model.Restaurant {
	out := make([]model.Restaurant, 0, len(items))
	for _, r := range items {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	sortByFunding(out, q.Sort, func(r model.Restaurant) (int64, int64) { return r.Raised(), r.FundingGoalAmount })
	return out
}

// Sidos returns the distinct, sorted sido names.
func Sidos(items []model.Specialty) []string {
	return distinct(items, func(s model.Specialty) string { return s.SidoNm })
}

// Sigungus returns the distinct, sorted sigungu names within sido.
// An empty sido yields nothing, the sigungu filter only applies inside a sido.
func Sigungus(items []model.Specialty, sido string) []string {
	if sido == "" {
		return nil
	}
	var scoped []model.Specialty
	for _, s := range items {
		if s.SidoNm == sido {
			scoped = append(scoped, s)
		}
	}
	return distinct(scoped, func(s model.Specialty) string { return s.SigunguNm })
}

// Categories returns the distinct leaf categories of restaurants. Kakao
// categories look like "음식점 > 한식 > 국밥".
func Categories(items []model.Restaurant) []string {
	return distinct(items, func(r model.Restaurant) string {
		parts := strings.Split(r.CategoryName, ">")
		return strings.TrimSpace(parts[len(parts)-1])
	})
}

func distinct[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		k := strings.TrimSpace(key(it))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func containsFold(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func sortByFunding[T any](items []T, mode SortMode, amounts func(T) (raised, goal int64)) {
	switch mode {
	case SortFundingHigh:
		sort.SliceStable(items, func(i, j int) bool {
			a, _ := amounts(items[i])
			b, _ := amounts(items[j])
			return a > b
		})
	case SortFundingLow:
		sort.SliceStable(items, func(i, j int) bool {
			a, _ := amounts(items[i])
			b, _ := amounts(items[j])
			return a < b
		})
	case SortPercentHigh:
		sort.SliceStable(items, func(i, j int) bool {
			return model.FundingPercent(amounts(items[i])) > model.FundingPercent(amounts(items[j]))
		})
	}
}
