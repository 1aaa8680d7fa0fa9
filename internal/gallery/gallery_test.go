package gallery

import "testing"

func TestAddPrependsNewestFirst(t *testing.T) {
	g := New(0)

	first := g.Add("data:image/png;base64,AA==", "first")
	second := g.Add("data:image/png;base64,BB==", "second")

	items := g.List()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Error("gallery must list newest first")
	}
	if items[0].Prompt != "second" {
		t.Errorf("Prompt = %q, want second", items[0].Prompt)
	}
}

func TestLimit(t *testing.T) {
	g := New(2)

	g.Add("a", "1")
	g.Add("b", "2")
	newest := g.Add("c", "3")

	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	if g.List()[0].ID != newest.ID {
		t.Error("newest artifact must survive trimming")
	}
	if _, ok := g.Get(g.List()[1].ID); !ok {
		t.Error("second-newest artifact must survive trimming")
	}
}

func TestGet(t *testing.T) {
	g := New(0)
	a := g.Add("payload", "prompt")

	got, ok := g.Get(a.ID)
	if !ok || got.Data != "payload" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if _, ok := g.Get("missing"); ok {
		t.Error("Get on unknown id must report absence")
	}
}

func TestListIsACopy(t *testing.T) {
	g := New(0)
	g.Add("a", "1")

	items := g.List()
	items[0].Prompt = "mutated"

	if g.List()[0].Prompt != "1" {
		t.Error("List must return a copy, not the backing slice")
	}
}
