package podds

import "strings"

/////////////////////////////////////////////////////////////////////////
////// Form Calculation Functions
/////////////////////////////////////////////////////////////////////////

// FormRecord counts the results in a form string
type FormRecord struct {
	Wins   int
	Draws  int
	Losses int
}

// Games returns the number of results in the record
func (fr FormRecord) Games() int {
	return fr.Wins + fr.Draws + fr.Losses
}

// ParseForm counts W, D and L letters in a provider form string such as "WWDLW".
// Any other character is ignored
func ParseForm(form string) FormRecord {
	var fr FormRecord
	for _, r := range strings.ToUpper(form) {
		switch r {
		case 'W':
			fr.Wins++
		case 'D':
			fr.Draws++
		case 'L':
			fr.Losses++
		}
	}
	return fr
}

// FormRate is wins plus half of draws over games played, 0.5 when no games are recorded
func FormRate(form string) float64 {
	fr := ParseForm(form)
	if fr.Games() == 0 {
		return 0.5
	}
	return (float64(fr.Wins) + float64(fr.Draws)/2) / float64(fr.Games())
}
