// Package hijri holds the calendar helpers used to key and label daily
// progress entries. Conversion uses the tabular Islamic calendar; dates are
// exchanged as the normalized "d/m/yyyy" key everywhere else in the system.
package hijri

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var MonthNames = [12]string{
	"محرم",
	"صفر",
	"ربيع الأول",
	"ربيع الثاني",
	"جمادى الأولى",
	"جمادى الآخرة",
	"رجب",
	"شعبان",
	"رمضان",
	"شوال",
	"ذو القعدة",
	"ذو الحجة",
}

var DayNames = [7]string{
	"الأحد",
	"الإثنين",
	"الثلاثاء",
	"الأربعاء",
	"الخميس",
	"الجمعة",
	"السبت",
}

// Date is an opaque hijri calendar date.
type Date struct {
	Day   int
	Month int
	Year  int
}

// Key returns the normalized date key used for progress upserts.
func (d Date) Key() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// MonthLabel returns the human month label, e.g. "رمضان 1447".
func (d Date) MonthLabel() string {
	return fmt.Sprintf("%s %d", MonthName(d.Month), d.Year)
}

func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}

	return MonthNames[month-1]
}

// leap years within the 30-year tabular cycle
var leapCycle = map[int]bool{
	2: true, 5: true, 7: true, 10: true, 13: true, 16: true,
	18: true, 21: true, 24: true, 26: true, 29: true,
}

func isLeapYear(year int) bool {
	return leapCycle[year%30]
}

// DaysInMonth returns 29 or 30. Odd months have 30 days, even months 29,
// except the 12th month which has 30 in leap years.
func DaysInMonth(month, year int) int {
	if month == 12 && isLeapYear(year) {
		return 30
	}

	if month%2 == 1 {
		return 30
	}

	return 29
}

// epoch is 1 Muharram 1 AH as a Julian day number (civil epoch).
const epochJDN = 1948440

func yearLength(year int) int {
	if isLeapYear(year) {
		return 355
	}

	return 354
}

// FromTime converts a Gregorian time to its tabular hijri date.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()

	a := (14 - int(m)) / 12
	gy := y + 4800 - a
	gm := int(m) + 12*a - 3
	jdn := d + (153*gm+2)/5 + 365*gy + gy/4 - gy/100 + gy/400 - 32045

	days := jdn - epochJDN

	year := 1
	for days >= yearLength(year) {
		days -= yearLength(year)
		year++
	}

	month := 1
	for days >= DaysInMonth(month, year) {
		days -= DaysInMonth(month, year)
		month++
	}

	return Date{Day: days + 1, Month: month, Year: year}
}

// Today returns the current hijri date.
func Today() Date {
	return FromTime(time.Now())
}

var digits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeDigits rewrites Arabic-Indic numerals to Western numerals.
func NormalizeDigits(s string) string {
	return digits.Replace(s)
}

// ParseKey parses a "d/m/yyyy" date key. Arabic-Indic digits are accepted.
func ParseKey(key string) (Date, error) {
	parts := strings.Split(NormalizeDigits(key), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid hijri date key: %q", key)
	}

	var nums [3]int

	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("invalid hijri date key: %q", key)
		}

		nums[i] = n
	}

	d := Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > DaysInMonth(d.Month, d.Year) {
		return Date{}, fmt.Errorf("hijri date out of range: %q", key)
	}

	return d, nil
}
