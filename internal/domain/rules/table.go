package rules

import "regexp"

// Rule families subject to negation gating.
const (
	FamilyDischarge = "discharge"
	FamilyInversion = "inversion"
)

// Shared term groups. Patterns run against lower-cased, whitespace-collapsed
// text, so the tables are written in lower case.
var (
	// breastCtx are the words that count as breast context.
	breastCtx = regexp.MustCompile(`\b(breast|boob|chest|nipple|areola|underarm|armpit|axilla|axillary)\b`)

	nippleOrBreast = regexp.MustCompile(`\b(nipple|breast)\b`)
	nipples        = regexp.MustCompile(`\bnipples?\b`)
	dischargeTerms = regexp.MustCompile(`\b(discharge|leak(ing)?|fluid)\b`)
	bloodTerms     = regexp.MustCompile(`\b(blood|bloody|red)\b`)

	inversionTerms = regexp.MustCompile(
		`\b(invert(ed|ing)?|retract(ed|ing)?|turn(ed|ing)\s*in(ward|wards)?|pull(ed|ing)\s*in|point(ing|ed)?\s*in(ward|wards)?|gone\s*in|going\s*in)\b`)

	skinChangeSubjects = regexp.MustCompile(`\b(breast|skin|nipple)\b`)
	skinChangeTerms    = regexp.MustCompile(
		`\b(dimpl(e|ing)|pucker(ing)?|peau\s*d'?orange|orange\s*peel|golf\s*ball|pitted|bumpy|textur(e|ed)|dent(ed)?)\b`)
	skinChangeOrRedness = regexp.MustCompile(
		`\b(dimpl(e|ing)|pucker(ing)?|peau\s*d'?orange|orange\s*peel|golf\s*ball|pitted|bumpy|textur(e|ed)|dent(ed)?|red(ness)?)\b`)
)

// DefaultOverrides returns the always-HIGH red-flag table in priority order.
func DefaultOverrides() []Override {
	return []Override{
		{
			All:   []*regexp.Regexp{nippleOrBreast, dischargeTerms, bloodTerms},
			Label: "bloody nipple discharge (override)",
		},
		{
			All: []*regexp.Regexp{
				nipples,
				regexp.MustCompile(`\b(new|recent|recently|sudden(ly)?|just|started)\b`),
				inversionTerms,
			},
			Label: "new nipple inversion/retraction (override)",
		},
		{
			All: []*regexp.Regexp{
				regexp.MustCompile(`\bnipple\b`),
				regexp.MustCompile(`\b(invert(ed|ing)?|pulled\s*in|retract(ed|ing)?|turned\s*in(ward|wards)?|gone\s*in)\b`),
				dischargeTerms,
			},
			Label: "nipple discharge + inversion (override)",
		},
		{
			All: []*regexp.Regexp{
				regexp.MustCompile(`\b(lump|swelling)\b`),
				regexp.MustCompile(`\b(breast|chest|armpit|underarm|axilla|axillary)\b`),
			},
			Label: "lump/swelling in breast/chest/armpit (override)",
		},
		{
			All:   []*regexp.Regexp{skinChangeSubjects, skinChangeTerms},
			Label: "skin changes (override)",
		},
	}
}

// DefaultRules returns the NHS-aligned weighted table. HIGH-leaning
// patterns sit first; the overrides above also catch the strongest of them.
func DefaultRules() []Rule {
	return []Rule{
		// Skin changes: dimpling / peau d'orange / marked redness.
		{
			All:    []*regexp.Regexp{skinChangeSubjects, skinChangeOrRedness},
			Weight: 4,
			Label:  "skin changes (dimpling/orange-peel/redness)",
		},
		// Nipple inversion / retraction ("new" is handled by the override).
		{
			All:    []*regexp.Regexp{nipples, inversionTerms},
			Weight: 3,
			Label:  "nipple inversion/retraction",
			Family: FamilyInversion,
		},
		// Clear/watery discharge with a one-sided or spontaneous feature.
		{
			All: []*regexp.Regexp{
				nippleOrBreast,
				dischargeTerms,
				regexp.MustCompile(`\b(clear|watery)\b`),
				regexp.MustCompile(`\b(one\s*(side|breast|nipple)|single|unilateral|without\s*(touch|press|squeez)|spontaneous|happen(s|ing)?\s*without)\b`),
			},
			Weight: 3,
			Label:  "nipple discharge with concerning features",
			Family: FamilyDischarge,
		},
		// Change in breast size/shape.
		{
			All: []*regexp.Regexp{
				breastCtx,
				regexp.MustCompile(`\bchange(s)?\b`),
				regexp.MustCompile(`\b(size|shape)\b`),
			},
			Weight: 3,
			Label:  "change in breast size/shape",
		},
		// Non-bloody nipple discharge.
		{
			All:    []*regexp.Regexp{nippleOrBreast, dischargeTerms},
			None:   []*regexp.Regexp{bloodTerms},
			Weight: 2,
			Label:  "non-bloody nipple discharge",
			Family: FamilyDischarge,
		},
		// Underarm / armpit pain.
		{
			All: []*regexp.Regexp{
				regexp.MustCompile(`\b(underarm|armpit|axilla|axillary)\b`),
				regexp.MustCompile(`\bpain\b`),
			},
			Weight: 2,
			Label:  "underarm/armpit pain",
		},
		// Persistent breast pain/tenderness.
		{
			All: []*regexp.Regexp{
				breastCtx,
				regexp.MustCompile(`\b(persistent|constant|ongoing|continuous)\b`),
				regexp.MustCompile(`\b(pain|ache|tender(ness)?)\b`),
			},
			Weight: 2,
			Label:  "persistent breast pain/tenderness",
		},
		// Very general low signals.
		{
			All: []*regexp.Regexp{
				regexp.MustCompile(`\b(unexplained|unintentional)\b.*\b(weight\s*loss|loss\s*of\s*appetite)\b`),
			},
			Weight: 1,
			Label:  "unexplained weight loss/appetite",
		},
		{
			All:    []*regexp.Regexp{regexp.MustCompile(`\b(fatigue|tired(ness)?)\b`)},
			Weight: 1,
			Label:  "fatigue/tiredness",
		},
		{
			All:    []*regexp.Regexp{regexp.MustCompile(`\btender(ness)?\b`)},
			Weight: 1,
			Label:  "tenderness",
		},
		{
			All:    []*regexp.Regexp{regexp.MustCompile(`\bache\b`)},
			Weight: 1,
			Label:  "ache",
		},
		{
			All:    []*regexp.Regexp{regexp.MustCompile(`\bitch(y|ing|iness)\b`)},
			Weight: 1,
			Label:  "itchiness",
		},
		{
			All:    []*regexp.Regexp{breastCtx, regexp.MustCompile(`\bpain\b`)},
			Weight: 1,
			Label:  "pain",
		},
	}
}

// DefaultNegations returns the per-family guards. A guarded rule's match is
// discarded when its family guard also matches the text.
func DefaultNegations() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		FamilyDischarge: regexp.MustCompile(`\b(no|not|never|without)\b.*\b(discharge|leak(ing)?|fluid)\b`),
		FamilyInversion: regexp.MustCompile(`\b(no|not|never|without)\b.*\b(invert(ed|ing)?|retract(ed|ing)?|pulled\s*in|turned\s*in(ward|wards)?)\b`),
	}
}
