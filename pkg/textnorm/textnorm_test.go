package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"José  Núñez":       "jose nunez",
		"  MUÑOZ Pérez ":    "munoz perez",
		"12.345.678-K":      "12.345.678-k",
		"":                  "",
		"Ángela Ñandú Ülla": "angela nandu ulla",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q)=%q，期望 %q", in, got, want)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains("Cristóbal Núñez", "nunez") {
		t.Error("应忽略重音匹配")
	}
	if Contains("Cristóbal Núñez", "perez") {
		t.Error("不相关的子串不应匹配")
	}
}
