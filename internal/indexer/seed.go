package indexer

import "slices"

// seedTexts is the built-in offline exemplar list, aligned with NHS breast
// change guidance. It keeps the similarity stage useful when no curated
// paraphrase CSV has been produced yet.
var seedTexts = []string{
	"bloody nipple discharge",
	"new nipple inversion",
	"breast skin looks like orange peel (peau d'orange)",
	"dimpling or puckering of the breast skin",
	"redness or a new rash around the nipple",
	"thickening or hardening in part of the breast",
	"change in size or shape of one breast",
	"lump in the breast",
	"swelling or lump in the armpit",
	"persistent breast pain not linked to periods",
	"flaky or crusty skin on the nipple",
	"hot inflamed breast skin",
	"clear nipple discharge",
	"itchy breast skin",
}

// SeedTexts returns a copy of the built-in exemplar phrases.
func SeedTexts() []string {
	return slices.Clone(seedTexts)
}
