package mologs

import (
	"testing"
)

func TestExtrasNesting(t *testing.T) {
	if currentExtras() != nil {
		t.Fatal("expected a clean goroutine scope")
	}

	popOuter := Extras(Params{"a": 1})
	if got := currentExtras(); got["a"] != 1 {
		t.Errorf("outer frame = %v", got)
	}

	popInner := Extras(Params{"a": 2, "b": 3})
	if got := currentExtras(); got["a"] != 2 || got["b"] != 3 {
		t.Errorf("inner frame = %v", got)
	}

	popInner()
	if got := currentExtras(); got["a"] != 1 || got["b"] != nil {
		t.Errorf("after inner pop = %v", got)
	}

	popOuter()
	if currentExtras() != nil {
		t.Error("popping the last frame should clear the goroutine entry")
	}
}

func TestExtrasGoroutineIsolation(t *testing.T) {
	pop := Extras(Params{"owner": "main"})
	defer pop()

	done := make(chan Params)
	go func() {
		done <- currentExtras()
	}()
	if got := <-done; got != nil {
		t.Errorf("other goroutine sees %v, want nothing", got)
	}
}

func TestExtrasPopIsLastInFirstOut(t *testing.T) {
	pop1 := Extras(Params{"n": 1})
	pop2 := Extras(Params{"n": 2})
	pop3 := Extras(Params{"n": 3})

	pop3()
	pop2()
	if got := currentExtras(); got["n"] != 1 {
		t.Errorf("after pops = %v", got)
	}
	pop1()
}
