package checksum

import "testing"

func TestOfIsStable(t *testing.T) {
	type doc struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	a, err := Of(doc{ID: "1", Title: "Limits"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	b, _ := Of(doc{ID: "1", Title: "Limits"})
	c, _ := Of(doc{ID: "1", Title: "Integrals"})
	if a != b {
		t.Error("same value should hash equal")
	}
	if a == c {
		t.Error("different values should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestOfUnmarshalable(t *testing.T) {
	if _, err := Of(make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}
