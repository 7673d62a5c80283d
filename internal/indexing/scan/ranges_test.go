package scan

import (
	"reflect"
	"testing"
)

func TestRangeSplit(t *testing.T) {
	got := Range{Start: 0, End: 25000}.Split(10000)
	want := []Range{
		{Start: 0, End: 9999},
		{Start: 10000, End: 19999},
		{Start: 20000, End: 25000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	single := Range{Start: 5, End: 10}.Split(10000)
	if len(single) != 1 || single[0] != (Range{Start: 5, End: 10}) {
		t.Errorf("small range should not be split: %v", single)
	}

	exact := Range{Start: 0, End: 19999}.Split(10000)
	if len(exact) != 2 || exact[1].End != 19999 {
		t.Errorf("unexpected split %v", exact)
	}
}
