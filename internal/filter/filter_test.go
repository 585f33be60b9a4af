package filter

import (
	"testing"

	"localfund/internal/model"

	"github.com/stretchr/testify/assert"
)

func specialties() []model.Specialty {
	return []model.Specialty{
		{ID: 1, Title: "제주 감귤", SidoNm: "제주특별자치도", SigunguNm: "서귀포시", FundingAmount: 50_000, FundingGoalAmount: 100_000},
		{ID: 2, Title: "횡성 한우", SidoNm: "강원도", SigunguNm: "횡성군", FundingAmount: 900_000, FundingGoalAmount: 1_000_000},
		{ID: 3, Title: "Jeju Hallabong", SidoNm: "제주특별자치도", SigunguNm: "제주시", FundingAmount: 10_000, TotalFundingAmount: 5_000},
		{ID: 4, Title: "영월 사과", SidoNm: "강원도", SigunguNm: "영월군", FundingAmount: 200_000, FundingGoalAmount: 250_000},
	}
}

func ids(items []model.Specialty) []int64 {
	out := make([]int64, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

func TestApplySpecialties_ResultIsSubsetMatchingAllPredicates(t *testing.T) {
	all := specialties()

	tests := []struct {
		name  string
		query SpecialtyQuery
		want  []int64
	}{
		{"empty query keeps order", SpecialtyQuery{}, []int64{1, 2, 3, 4}},
		{"sido equality", SpecialtyQuery{Sido: "강원도"}, []int64{2, 4}},
		{"sido and sigungu", SpecialtyQuery{Sido: "제주특별자치도", Sigungu: "제주시"}, []int64{3}},
		{"text is case insensitive", SpecialtyQuery{Text: "jeju"}, []int64{3}},
		{"text matches region", SpecialtyQuery{Text: "횡성"}, []int64{2}},
		{"text and sido must both hold", SpecialtyQuery{Text: "사과", Sido: "제주특별자치도"}, []int64{}},
		{"whitespace text is ignored", SpecialtyQuery{Text: "   "}, []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplySpecialties(all, tt.query)
			assert.Equal(t, tt.want, ids(got))
			for _, s := range got {
				assert.True(t, tt.query.Match(s))
			}
		})
	}
}

func TestApplySpecialties_Sorts(t *testing.T) {
	all := specialties()

	assert.Equal(t, []int64{2, 4, 1, 3}, ids(ApplySpecialties(all, SpecialtyQuery{Sort: SortFundingHigh})))
	assert.Equal(t, []int64{3, 1, 4, 2}, ids(ApplySpecialties(all, SpecialtyQuery{Sort: SortFundingLow})))
	// 90%, 80%, 50%, then the item without a goal.
	assert.Equal(t, []int64{2, 4, 1, 3}, ids(ApplySpecialties(all, SpecialtyQuery{Sort: SortPercentHigh})))

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(all), "input is untouched")
}

func TestSidosAndSigungus(t *testing.T) {
	all := specialties()

	assert.Equal(t, []string{"강원도", "제주특별자치도"}, Sidos(all))
	assert.Equal(t, []string{"영월군", "횡성군"}, Sigungus(all, "강원도"))
	assert.Nil(t, Sigungus(all, ""))
	assert.Nil(t, Sigungus(all, "경기도"))
}

func TestApplyRestaurants(t *testing.T) {
	all := []model.Restaurant{
		{ID: 1, Name: "Seoul Gukbap", CategoryName: "음식점 > 한식 > 국밥", SidoNm: "서울특별시", FundingAmount: 300},
		{ID: 2, Name: "을지로 커피", CategoryName: "음식점 > 카페", SidoNm: "서울특별시", FundingAmount: 100},
		{ID: 3, Name: "부산 밀면", CategoryName: "음식점 > 한식 > 면", SidoNm: "부산광역시", FundingAmount: 200},
	}

	got := ApplyRestaurants(all, RestaurantQuery{Category: "한식", Sort: SortFundingLow})
	assert.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)

	got = ApplyRestaurants(all, RestaurantQuery{Text: "GUKBAP"})
	assert.Len(t, got, 1)

	assert.Equal(t, []string{"국밥", "면", "카페"}, Categories(all))
	assert.False(t, RestaurantQuery{Sort: SortFundingHigh}.Active())
	assert.True(t, RestaurantQuery{Sido: "부산광역시"}.Active())
}

func TestSortMode_NextCycles(t *testing.T) {
	m := SortDefault
	seen := map[SortMode]bool{}
	for range SortModes {
		seen[m] = true
		m = m.Next()
	}
	assert.Equal(t, SortDefault, m)
	assert.Len(t, seen, len(SortModes))
	assert.Equal(t, "default", SortDefault.Label())
}
