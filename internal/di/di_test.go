package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type widget struct{ n int }

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*widget]("test:widget")

	var calls atomic.Int32
	RegisterToken(c, tok, func(ServiceRegistry) *widget {
		calls.Add(1)
		return &widget{n: 7}
	})

	if calls.Load() != 0 {
		t.Fatal("factory ran before first Get")
	}

	var wg sync.WaitGroup
	results := make([]*widget, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("factory calls = %d, want 1", calls.Load())
	}
	for _, w := range results {
		if w != results[0] {
			t.Fatal("GetToken returned different instances")
		}
	}
}

func TestFactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", 3)

	tok := NewToken[*widget]("test:widget")
	RegisterToken(c, tok, func(sr ServiceRegistry) *widget {
		return &widget{n: sr.Get("config").(int) * 2}
	})

	if got := GetToken(c, tok).n; got != 6 {
		t.Errorf("n = %d, want 6", got)
	}
}

func TestGet_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	NewContainer().Get("missing")
}

func TestHas(t *testing.T) {
	c := NewContainer()
	c.Register("logger", "x")
	if !c.Has("logger") || c.Has("other") {
		t.Error("Has reported wrong registrations")
	}
}
