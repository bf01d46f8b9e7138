package render

import (
	"strconv"

	"github.com/aluiziolira/go-scrape-listings/models"
	"github.com/aluiziolira/go-scrape-listings/parser"
)

// Card is the view model for one listing in the gallery.
type Card struct {
	Index    int
	Name     string
	Title    string
	URL      string
	Nearest  string
	Badges   []Badge
	Specs    []SpecRow
	Carousel *Carousel
}

// Badge is a capability chip shown under the card title.
type Badge struct {
	Class string
	Text  string
}

// SpecRow is one entry of the card's definition list.
type SpecRow struct {
	Label string
	Value string
	Price bool
}

// Spec row labels, in display order.
const (
	LabelPrice     = "賃料"
	LabelLayout    = "間取り"
	LabelArea      = "専有面積"
	LabelStructure = "構造"
	LabelAccess    = "アクセス"
	LabelNearest   = "最寄り駅"
	LabelShiga     = "最寄→志賀本通駅"
	LabelNagoya    = "最寄→名古屋駅"
	LabelTokishi   = "最寄→土岐市（岐阜）"
	LabelInternet  = "インターネット"
	LabelNote      = "備考"
)

// NearestStationLabel formats "station（徒歩N分）" from the listing. Stored
// nearestStation and walkMinutes win; otherwise both are read from access the
// same way extraction does.
func NearestStationLabel(l models.Listing) string {
	station := l.NearestStation
	if station == "" {
		station, _ = parser.NearestStation(l.Access)
	}

	minutes, hasMinutes := 0, false
	if l.WalkMinutes != nil {
		minutes, hasMinutes = *l.WalkMinutes, true
	} else {
		minutes, hasMinutes = parser.WalkMinutesRule(l.Access)
	}

	walk := ""
	if hasMinutes {
		walk = "徒歩" + strconv.Itoa(minutes) + "分"
	}
	switch {
	case station == "":
		return walk
	case walk == "":
		return station
	default:
		return station + "（" + walk + "）"
	}
}

// Badges returns the capability badges for values that are present.
func Badges(l models.Listing) []Badge {
	var badges []Badge
	if l.Gas != "" {
		badges = append(badges, Badge{Class: "badge-gas", Text: l.Gas})
	}
	if l.Stove.Known() {
		badges = append(badges, Badge{Class: "badge-stove", Text: "コンロ" + presence(l.Stove)})
	}
	if l.AC.Known() {
		badges = append(badges, Badge{Class: "badge-ac", Text: "エアコン" + presence(l.AC)})
	}
	if l.Internet != "" {
		badges = append(badges, Badge{Class: "badge-net", Text: "ネット" + l.Internet})
	}
	return badges
}

func presence(t models.TriState) string {
	if t == models.Yes {
		return "あり"
	}
	return "なし"
}

// SpecRows lists the non-empty fields in fixed display order.
func SpecRows(l models.Listing) []SpecRow {
	candidates := []SpecRow{
		{Label: LabelPrice, Value: l.Price, Price: true},
		{Label: LabelLayout, Value: l.Layout},
		{Label: LabelArea, Value: l.Area},
		{Label: LabelStructure, Value: l.Structure},
		{Label: LabelAccess, Value: l.Access},
		{Label: LabelNearest, Value: NearestStationLabel(l)},
		{Label: LabelShiga, Value: l.ShigaAccess},
		{Label: LabelNagoya, Value: l.NagoyaAccess},
		{Label: LabelTokishi, Value: l.TokishiAccess},
		{Label: LabelInternet, Value: l.Internet},
		{Label: LabelNote, Value: l.Note},
	}

	rows := make([]SpecRow, 0, len(candidates))
	for _, row := range candidates {
		if row.Value != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

// NewCard builds the card for the listing at position index. Carousels with
// controls open on slide start, wrapped to the image count.
func NewCard(index int, l models.Listing, placeholders []string, start int) Card {
	carousel := NewCarousel(l.Images, placeholders)
	if carousel.Controls() {
		carousel.GoTo(start)
	}
	return Card{
		Index:    index,
		Name:     l.Name,
		Title:    l.Title(),
		URL:      l.URL,
		Nearest:  NearestStationLabel(l),
		Badges:   Badges(l),
		Specs:    SpecRows(l),
		Carousel: carousel,
	}
}
