package core

import "testing"

func TestDirectRouter(t *testing.T) {
	dir := NewDirectory("self", 0)
	dir.Add("a", Endpoint{Host: "127.0.0.1", Port: 7000})
	route := DirectRouter(dir)

	ep, ok := route("a")
	if !ok || ep.Port != 7000 {
		t.Fatalf("expected to route to a's endpoint, got %+v, %v", ep, ok)
	}
	if _, ok := route("unknown"); ok {
		t.Fatal("expected no route for a non-neighbor")
	}
}
