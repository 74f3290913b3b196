package core

// View is the derived list and total for one status.
type View struct {
	Status  Status  `json:"status"`
	Entries []Entry `json:"entries"`
	Total   float64 `json:"total"`
}

// Project filters entries down to the given status, keeping their order,
// and sums the matching amounts. It never modifies its input.
func Project(entries []Entry, status Status) View {
	v := View{Status: status, Entries: []Entry{}}
	for _, e := range entries {
		if e.Status != status {
			continue
		}
		v.Entries = append(v.Entries, e)
		v.Total += e.Amount
	}
	return v
}

// Totals returns the projected total for every status.
func Totals(entries []Entry) map[Status]float64 {
	out := make(map[Status]float64, 3)
	for _, s := range Statuses() {
		out[s] = Project(entries, s).Total
	}
	return out
}
