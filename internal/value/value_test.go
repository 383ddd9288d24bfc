package value

import "testing"

func TestToString(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null, ""},
		{"true", NewBool(true), "1"},
		{"false", NewBool(false), ""},
		{"int", NewInt(42), "42"},
		{"negative", NewInt(-7), "-7"},
		{"double", NewDouble(3.5), "3.5"},
		{"string", NewString("hi"), "hi"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.ToString(); got != c.want {
				t.Fatalf("ToString() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestNumericStringCoercionIsTotal(t *testing.T) {
	if got := NewString("not-a-number").ToInt(); got != 0 {
		t.Fatalf("ToInt() of non-numeric string = %d, want 0", got)
	}
	if got := NewString("not-a-number").ToDouble(); got != 0 {
		t.Fatalf("ToDouble() of non-numeric string = %v, want 0", got)
	}
	if got := NewString("42").ToInt(); got != 42 {
		t.Fatalf("ToInt() of \"42\" = %d, want 42", got)
	}
	if got := NewInt(7).ToString(); got != "7" {
		t.Fatalf("ToString() of int 7 = %q, want \"7\"", got)
	}
}

func TestSoftMissReturnsNull(t *testing.T) {
	m := NewMapUnordered(map[string]Value{"a": NewInt(1)})
	if got := m.MemberByName("missing"); !got.IsNull() {
		t.Fatalf("MemberByName miss = %#v, want Null", got)
	}
	l := NewList([]Value{NewInt(1)})
	if got := l.MemberByIndex(5); !got.IsNull() {
		t.Fatalf("MemberByIndex miss = %#v, want Null", got)
	}
}

func TestListIteration(t *testing.T) {
	l := NewList([]Value{NewInt(0), NewInt(1), NewInt(2)})
	it := NewIterator(l)
	var got []int64
	for it.Valid() {
		got = append(got, it.CurrentValue().ToInt())
		it.Next()
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("iteration got %v", got)
	}
}

func TestMapIterationOrderIsSorted(t *testing.T) {
	m := NewMapUnordered(map[string]Value{"b": NewInt(2), "a": NewInt(1)})
	it := NewIterator(m)
	k0, _ := it.CurrentKey()
	if k0.ToString() != "a" {
		t.Fatalf("first key = %q, want %q", k0.ToString(), "a")
	}
}

func TestVariantOf(t *testing.T) {
	v := Of(map[string]interface{}{"x": 1, "y": "z"}).Value()
	if v.MemberByName("x").ToInt() != 1 {
		t.Fatalf("nested int not converted")
	}
	if v.MemberByName("y").ToString() != "z" {
		t.Fatalf("nested string not converted")
	}
}
