package device

import (
	"sort"
	"testing"
)

func TestDriverInfoListSorting(t *testing.T) {
	origlist := DriverInfoList{
		{Order: DetectOrderNormal},
		{Order: DetectOrderLast},
		{Order: DetectOrderFallback},
		{Order: DetectOrderPreferred},
		{Order: DetectOrderEarly},
	}
	expOrder := []DetectOrder{
		DetectOrderEarly,
		DetectOrderPreferred,
		DetectOrderNormal,
		DetectOrderFallback,
		DetectOrderLast,
	}

	sorted := append(DriverInfoList(nil), origlist...)
	sorted.SortByOrder()

	viaSort := append(DriverInfoList(nil), origlist...)
	sort.Stable(viaSort)

	for i, exp := range expOrder {
		if got := sorted[i].Order; got != exp {
			t.Errorf("expected sorted entry %d to have order %d; got %d", i, exp, got)
		}
		if got := viaSort[i].Order; got != exp {
			t.Errorf("expected sort.Stable entry %d to have order %d; got %d", i, exp, got)
		}
	}
}

func TestDriverInfoListSortIsStable(t *testing.T) {
	var calls []int
	probeFn := func(id int) ProbeFn {
		return func() Driver {
			calls = append(calls, id)
			return nil
		}
	}

	list := DriverInfoList{
		{Order: DetectOrderNormal, Probe: probeFn(0)},
		{Order: DetectOrderEarly, Probe: probeFn(1)},
		{Order: DetectOrderNormal, Probe: probeFn(2)},
		{Order: DetectOrderNormal, Probe: probeFn(3)},
	}
	list.SortByOrder()

	for _, info := range list {
		info.Probe()
	}

	exp := []int{1, 0, 2, 3}
	for i := range exp {
		if calls[i] != exp[i] {
			t.Fatalf("expected probe order %v; got %v", exp, calls)
		}
	}
}
