package fixtures

import (
	"net/http"
	"strconv"
	"strings"
)

// landmarks answer keyword searches that match no seeded restaurant.
var landmarks = []kakaoPlace{
	{ID: "L1", PlaceName: "강남역", AddressName: "서울 강남구 역삼동 858", RoadAddressName: "서울 강남구 강남대로 396", X: "127.0276", Y: "37.4979", CategoryName: "교통,수송 > 지하철역"},
	{ID: "L2", PlaceName: "을지로입구역", AddressName: "서울 중구 을지로2가 203", RoadAddressName: "서울 중구 을지로 42", X: "126.9826", Y: "37.5660", CategoryName: "교통,수송 > 지하철역"},
	{ID: "L3", PlaceName: "성수역", AddressName: "서울 성동구 성수동2가 289", RoadAddressName: "서울 성동구 아차산로 100", X: "127.0557", Y: "37.5446", CategoryName: "교통,수송 > 지하철역"},
	{ID: "L4", PlaceName: "해운대해수욕장", AddressName: "부산 해운대구 우동 1411", RoadAddressName: "부산 해운대구 해운대해변로 264", X: "129.1586", Y: "35.1587", CategoryName: "여행 > 해수욕장"},
}

type kakaoPlace struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	Phone           string `json:"phone"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
	PlaceURL        string `json:"place_url"`
}

// handleKakaoKeyword mimics the Kakao Local keyword search over the seeded
// restaurants and a few landmarks. Any non-empty KakaoAK key is accepted.
func (s *Server) handleKakaoKeyword(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "KakaoAK ")
	if !ok || strings.TrimSpace(key) == "" {
		s.writeError(w, http.StatusUnauthorized, "KakaoAK key required")
		return
	}
	needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	docs := []kakaoPlace{}
	if needle != "" {
		for _, rest := range s.store.allRestaurants() {
			p := kakaoPlace{
				ID:              "R" + strconv.FormatInt(rest.ID, 10),
				PlaceName:       rest.Name,
				CategoryName:    rest.CategoryName,
				Phone:           rest.Phone,
				AddressName:     rest.RoadAddressName,
				RoadAddressName: rest.RoadAddressName,
				X:               strconv.FormatFloat(rest.X, 'f', -1, 64),
				Y:               strconv.FormatFloat(rest.Y, 'f', -1, 64),
				PlaceURL:        rest.PlaceURL,
			}
			if matchesPlace(p, needle) {
				docs = append(docs, p)
			}
		}
		for _, p := range landmarks {
			if matchesPlace(p, needle) {
				docs = append(docs, p)
			}
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func matchesPlace(p kakaoPlace, needle string) bool {
	return strings.Contains(strings.ToLower(p.PlaceName), needle) ||
		strings.Contains(strings.ToLower(p.AddressName), needle) ||
		strings.Contains(strings.ToLower(p.RoadAddressName), needle)
}
