package roster

// Profile describes the column layout of a roster CSV export. Schools hand
// these around as spreadsheet exports with either Arabic or English headers.
type Profile struct {
	Name     string
	NameCol  string
	AgeCol   string // optional
	SurahCol string // optional
}

// requiredCols returns the column names that must be present for this
// profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol}
}

// optionalCols are picked up when present.
func (p Profile) optionalCols() []string {
	return []string{p.AgeCol, p.SurahCol}
}

// profiles is the ordered list of roster formats to try during
// auto-detection.
var profiles = []Profile{
	{
		Name:     "arabic",
		NameCol:  "الاسم",
		AgeCol:   "العمر",
		SurahCol: "السورة الحالية",
	},
	{
		Name:     "english",
		NameCol:  "name",
		AgeCol:   "age",
		SurahCol: "current_surah",
	},
}
