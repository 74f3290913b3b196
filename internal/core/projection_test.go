package core

import (
	"reflect"
	"testing"
)

func sampleEntries() []Entry {
	return []Entry{
		{ID: "5", Name: "Ravi", Amount: 20.5, Status: Debit},
		{ID: "4", Name: "Asha", Amount: 150, Status: Pending},
		{ID: "3", Name: "Meera", Amount: 0.25, Status: Paid},
		{ID: "2", Name: "Kiran", Amount: 49.75, Status: Pending},
		{ID: "1", Name: "Dev", Amount: 10, Status: Paid},
	}
}

func TestProjectFiltersAndSums(t *testing.T) {
	entries := sampleEntries()
	cases := []struct {
		status Status
		ids    []string
		total  float64
	}{
		{Pending, []string{"4", "2"}, 199.75},
		{Paid, []string{"3", "1"}, 10.25},
		{Debit, []string{"5"}, 20.5},
	}
	for _, tc := range cases {
		v := Project(entries, tc.status)
		var ids []string
		for _, e := range v.Entries {
			if e.Status != tc.status {
				t.Fatalf("%s view contains %s entry", tc.status, e.Status)
			}
			ids = append(ids, e.ID)
		}
		if !reflect.DeepEqual(ids, tc.ids) {
			t.Fatalf("%s expected ids %v, got %v", tc.status, tc.ids, ids)
		}
		if v.Total != tc.total {
			t.Fatalf("%s expected total %v, got %v", tc.status, tc.total, v.Total)
		}
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	entries := sampleEntries()
	before := append([]Entry(nil), entries...)
	for _, s := range Statuses() {
		a := Project(entries, s)
		b := Project(entries, s)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s projection changed between calls: %v vs %v", s, a, b)
		}
	}
	if !reflect.DeepEqual(before, entries) {
		t.Fatalf("projection mutated its input")
	}
}

func TestProjectEmpty(t *testing.T) {
	v := Project(nil, Paid)
	if v.Total != 0 || len(v.Entries) != 0 || v.Entries == nil {
		t.Fatalf("expected empty non-nil view, got %+v", v)
	}
}

func TestTotals(t *testing.T) {
	got := Totals(sampleEntries())
	if got[Pending] != 199.75 || got[Paid] != 10.25 || got[Debit] != 20.5 {
		t.Fatalf("unexpected totals %v", got)
	}
}
