package cache

import "testing"

func TestGetSet(t *testing.T) {
	c := New(10)

	if _, hit := c.Get(Key("unseen")); hit {
		t.Fatal("miss expected on empty cache")
	}

	k := Key("What is the capital of France?|London|Paris|Berlin|Madrid")
	c.Set(k, 2)

	choice, hit := c.Get(k)
	if !hit || choice != 2 {
		t.Fatalf("Get = (%d, %v), want (2, true)", choice, hit)
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("abc") != Key("abc") {
		t.Error("identical inputs produced different keys")
	}
	if Key("abc") == Key("abd") {
		t.Error("different inputs produced the same key")
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(2)
	c.Set(Key("a"), 1)
	c.Set(Key("b"), 2)
	c.Set(Key("c"), 3)

	hits := 0
	for _, q := range []string{"a", "b", "c"} {
		if _, hit := c.Get(Key(q)); hit {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("expected exactly 2 survivors at capacity 2, got %d", hits)
	}
}
