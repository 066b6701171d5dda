package checksum

import "testing"

func TestSumJSONStable(t *testing.T) {
	v := map[string]any{"b": 2, "a": []int{1}}
	first, err := SumJSON(v)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := SumJSON(map[string]any{"a": []int{1}, "b": 2})
	if first != second {
		t.Errorf("map order changed the tag: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("len = %d", len(first))
	}
	if _, err := SumJSON(func() {}); err == nil {
		t.Error("expected encode error")
	}
}

func TestMatch(t *testing.T) {
	tag := Sum([]byte("x"))
	cases := []struct {
		header string
		want   bool
	}{
		{"", true},
		{"*", true},
		{tag, true},
		{`"` + tag + `"`, true},
		{"stale", false},
		{`"`, false},
	}
	for _, c := range cases {
		if got := Match(c.header, tag); got != c.want {
			t.Errorf("Match(%q) = %v, want %v", c.header, got, c.want)
		}
	}
}
