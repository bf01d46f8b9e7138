package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-listings/models"
)

// Rule extracts one field value from normalized page text.
type Rule[T any] func(text string) (T, bool)

// RuleSet is a list of rules tried in order; the first match wins.
type RuleSet[T any] []Rule[T]

// Apply runs the rules top to bottom and returns the first match.
func (rs RuleSet[T]) Apply(text string) (T, bool) {
	for _, rule := range rs {
		if v, ok := rule(text); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// MatchRule returns a rule that formats the submatches of the first match of re.
func MatchRule(re *regexp.Regexp, format func(m []string) string) Rule[string] {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		v := format(m)
		return v, v != ""
	}
}

// KeywordRule returns a rule yielding value whenever re matches.
func KeywordRule[T any](re *regexp.Regexp, value T) Rule[T] {
	return func(text string) (T, bool) {
		if re.MatchString(text) {
			return value, true
		}
		var zero T
		return zero, false
	}
}

// Reject wraps rule so that a result equal to any of values counts as a miss.
func Reject(rule Rule[string], values ...string) Rule[string] {
	return func(text string) (string, bool) {
		v, ok := rule(text)
		if !ok {
			return "", false
		}
		for _, bad := range values {
			if v == bad {
				return "", false
			}
		}
		return v, true
	}
}

var (
	priceRangeRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:万円)?\s*[〜~\-]\s*(\d+(?:\.\d+)?)\s*万円`)
	priceRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*万円`)
	layoutLabelRe = regexp.MustCompile(`間取り\s*:?\s*(\d*LDK|\d*DK|\d*K|ワンルーム)`)
	layoutRe      = regexp.MustCompile(`(\d*LDK|\d*DK|\d*K|ワンルーム)`)
	areaUnitRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m²|㎡|m2|平米)`)
	areaLabelRe   = regexp.MustCompile(`専有[^\d]*(\d+(?:\.\d+)?)`)
	accessRe      = regexp.MustCompile(`([^\s:]+?)\s*徒歩\s*(\d+)\s*分`)
	stationRe     = regexp.MustCompile(`([^\s:]+駅)`)
	walkRe        = regexp.MustCompile(`徒歩\s*(\d+)\s*分`)
	shigaRe       = regexp.MustCompile(`志賀本通(?:駅)?\s*(?:まで|へ)?\s*(徒歩|電車|バス|車)?\s*約?\s*(\d+)\s*分`)
	titleSuffixRe = regexp.MustCompile(`\s*(?:｜|\||\s[-–]\s).*$`)

	cityGasRe     = regexp.MustCompile(`都市ガス`)
	propaneRe     = regexp.MustCompile(`プロパンガス|LPガス|LPG`)
	allElectricRe = regexp.MustCompile(`オール電化`)

	noStoveRe = regexp.MustCompile(`コンロ\s*(?:なし|無し|無|不可)`)
	stoveRe   = regexp.MustCompile(`コンロ`)
	noACRe    = regexp.MustCompile(`エアコン\s*(?:なし|無し|無)`)
	acRe      = regexp.MustCompile(`エアコン|冷暖房`)

	freeNetRe = regexp.MustCompile(`(?i)(?:インターネット|ネット|wi-?fi)\s*(?:使用料)?\s*無料`)
	netRe     = regexp.MustCompile(`(?i)インターネット\s*(?:対応|接続可|可)|光ファイバー|光回線|wi-?fi`)

	srcRe        = regexp.MustCompile(`鉄骨鉄筋コンクリート|SRC造`)
	rcRe         = regexp.MustCompile(`鉄筋コンクリート|RC造`)
	lightSteelRe = regexp.MustCompile(`軽量鉄骨`)
	steelRe      = regexp.MustCompile(`重量鉄骨|鉄骨造|\bS造`)
	woodRe       = regexp.MustCompile(`木造`)
)

// FieldRules bundles the rule set of every scraped field.
type FieldRules struct {
	Price       RuleSet[string]
	Layout      RuleSet[string]
	Area        RuleSet[string]
	Access      RuleSet[string]
	Gas         RuleSet[string]
	Stove       RuleSet[models.TriState]
	AC          RuleSet[models.TriState]
	Internet    RuleSet[string]
	Structure   RuleSet[string]
	WalkMinutes RuleSet[int]
	ShigaAccess RuleSet[string]
}

// DefaultRules returns the rules used for the listing pages.
func DefaultRules() FieldRules {
	return FieldRules{
		Price: RuleSet[string]{
			PriceRule,
		},
		Layout: RuleSet[string]{
			Reject(MatchRule(layoutLabelRe, func(m []string) string { return m[1] }), "K"),
			Reject(MatchRule(layoutRe, func(m []string) string { return m[1] }), "K"),
		},
		Area: RuleSet[string]{
			MatchRule(areaUnitRe, func(m []string) string { return m[1] + "m²" }),
			MatchRule(areaLabelRe, func(m []string) string { return m[1] + "m²" }),
		},
		Access: RuleSet[string]{
			MatchRule(accessRe, func(m []string) string { return m[1] + " 徒歩" + m[2] + "分" }),
		},
		Gas: RuleSet[string]{
			KeywordRule(cityGasRe, "都市ガス"),
			KeywordRule(propaneRe, "プロパンガス"),
			KeywordRule(allElectricRe, "オール電化"),
		},
		Stove: RuleSet[models.TriState]{
			KeywordRule(noStoveRe, models.No),
			KeywordRule(stoveRe, models.Yes),
		},
		AC: RuleSet[models.TriState]{
			KeywordRule(noACRe, models.No),
			KeywordRule(acRe, models.Yes),
		},
		Internet: RuleSet[string]{
			KeywordRule(freeNetRe, "無料"),
			KeywordRule(netRe, "対応"),
		},
		Structure: RuleSet[string]{
			KeywordRule(srcRe, "SRC造"),
			KeywordRule(rcRe, "RC造"),
			KeywordRule(lightSteelRe, "軽量鉄骨造"),
			KeywordRule(steelRe, "鉄骨造"),
			KeywordRule(woodRe, "木造"),
		},
		WalkMinutes: RuleSet[int]{
			WalkMinutesRule,
		},
		ShigaAccess: RuleSet[string]{
			MatchRule(shigaRe, func(m []string) string { return m[1] + m[2] + "分" }),
		},
	}
}

// PriceRule returns the earliest price in text. A range is used only when it
// starts no later than the first single price and its bounds ascend, so
// "5万円 敷金 1-2万円" gives "5万円" and "2024-10万円" gives "10万円".
func PriceRule(text string) (string, bool) {
	single := priceRe.FindStringSubmatchIndex(text)
	for _, r := range priceRangeRe.FindAllStringSubmatchIndex(text, -1) {
		if single != nil && r[0] > single[0] {
			break
		}
		low, high := text[r[2]:r[3]], text[r[4]:r[5]]
		if ascending(low, high) {
			return low + "〜" + high + "万円", true
		}
	}
	if single == nil {
		return "", false
	}
	return text[single[2]:single[3]] + "万円", true
}

func ascending(low, high string) bool {
	lo, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return false
	}
	hi, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return false
	}
	return lo < hi
}

// WalkMinutesRule reads the first "徒歩N分" in text.
func WalkMinutesRule(text string) (int, bool) {
	m := walkRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NearestStation derives the station name from an access line such as
// "名古屋駅 徒歩5分".
func NearestStation(access string) (string, bool) {
	m := stationRe.FindStringSubmatch(access)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BuildingName strips the site suffix from a page title:
// "ハイツ名古屋｜SUUMO" becomes "ハイツ名古屋".
func BuildingName(title string) (string, bool) {
	name := strings.TrimSpace(titleSuffixRe.ReplaceAllString(strings.TrimSpace(title), ""))
	return name, name != ""
}

// Apply overwrites each field of l whose rule matches text and leaves the
// rest untouched. text must already be normalized.
func (fr FieldRules) Apply(l *models.Listing, text string) {
	setString(&l.Price, fr.Price, text)
	setString(&l.Layout, fr.Layout, text)
	setString(&l.Area, fr.Area, text)
	setString(&l.Access, fr.Access, text)
	setString(&l.Gas, fr.Gas, text)
	setString(&l.Internet, fr.Internet, text)
	setString(&l.Structure, fr.Structure, text)
	setString(&l.ShigaAccess, fr.ShigaAccess, text)

	if v, ok := fr.Stove.Apply(text); ok {
		l.Stove = v
	}
	if v, ok := fr.AC.Apply(text); ok {
		l.AC = v
	}
	if v, ok := fr.WalkMinutes.Apply(text); ok {
		l.WalkMinutes = &v
	}

	if l.NearestStation == "" {
		if station, ok := NearestStation(l.Access); ok {
			l.NearestStation = station
		}
	}
}

// ApplyTitles sets the building name from the first usable title unless the
// listing already has one.
func ApplyTitles(l *models.Listing, titles ...string) {
	if l.BuildingName != "" {
		return
	}
	for _, title := range titles {
		if name, ok := BuildingName(title); ok {
			l.BuildingName = name
			return
		}
	}
}

func setString(dst *string, rules RuleSet[string], text string) {
	if v, ok := rules.Apply(text); ok {
		*dst = v
	}
}
