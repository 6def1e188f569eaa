package jotai

import (
	"errors"
	"testing"
)

func TestProvide(t *testing.T) {
	store := NewStore()

	counter := Provide(func(rc *ReadCtx) (int, error) {
		return 42, nil
	})

	val, err := Resolve(store, counter)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
}

func TestStored(t *testing.T) {
	store := NewStore()

	name := Stored("initial")

	val, err := Resolve(store, name)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != "initial" {
		t.Errorf("expected initial, got %s", val)
	}

	if err := Update(store, name, "updated"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	val, _ = Resolve(store, name)
	if val != "updated" {
		t.Errorf("expected updated, got %s", val)
	}
}

func TestDerive1(t *testing.T) {
	store := NewStore()

	counter := Provide(func(rc *ReadCtx) (int, error) {
		return 5, nil
	})

	doubled := Derive1(
		counter,
		func(rc *ReadCtx, counterCtrl *Controller[int]) (int, error) {
			count, err := counterCtrl.Get()
			if err != nil {
				return 0, err
			}
			return count * 2, nil
		},
	)

	val, err := Resolve(store, doubled)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if val != 10 {
		t.Errorf("expected 10, got %d", val)
	}
}

func TestReactive(t *testing.T) {
	store := NewStore()

	counter := Stored(0)

	doubled := Derive1(
		counter.Reactive(),
		func(rc *ReadCtx, counterCtrl *Controller[int]) (int, error) {
			count, err := counterCtrl.Get()
			if err != nil {
				return 0, err
			}
			return count * 2, nil
		},
	)

	val, _ := Resolve(store, doubled)
	if val != 0 {
		t.Errorf("expected 0, got %d", val)
	}

	if err := Update(store, counter, 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	val, _ = Resolve(store, doubled)
	if val != 10 {
		t.Errorf("expected 10, got %d", val)
	}
}

func TestReactiveChain(t *testing.T) {
	store := NewStore()

	base := Stored(1)

	doubled := Derive1(
		base.Reactive(),
		func(rc *ReadCtx, c *Controller[int]) (int, error) {
			val, _ := c.Get()
			return val * 2, nil
		},
	)

	plusTen := Derive1(
		doubled.Reactive(),
		func(rc *ReadCtx, c *Controller[int]) (int, error) {
			val, _ := c.Get()
			return val + 10, nil
		},
	)

	val, _ := Resolve(store, plusTen)
	if val != 12 {
		t.Errorf("expected 12, got %d", val)
	}

	if err := Update(store, base, 3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	val, _ = Resolve(store, plusTen)
	if val != 16 {
		t.Errorf("expected 16, got %d", val)
	}
}

func TestLazyDependency(t *testing.T) {
	store := NewStore()

	resolved := false
	expensive := Provide(func(rc *ReadCtx) (int, error) {
		resolved = true
		return 99, nil
	})

	cheap := Derive1(
		expensive.Lazy(),
		func(rc *ReadCtx, c *Controller[int]) (string, error) {
			return "cheap", nil
		},
	)

	val, err := Resolve(store, cheap)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != "cheap" {
		t.Errorf("expected cheap, got %s", val)
	}
	if resolved {
		t.Error("lazy dependency should not have been resolved")
	}
}

func TestResolveError(t *testing.T) {
	store := NewStore()

	boom := errors.New("boom")
	failing := Provide(func(rc *ReadCtx) (int, error) {
		return 0, boom
	})

	dependent := Derive1(
		failing,
		func(rc *ReadCtx, c *Controller[int]) (int, error) {
			val, err := c.Get()
			return val, err
		},
	)

	_, err := Resolve(store, dependent)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected error chain to include boom, got %v", err)
	}

	var re *ResolveError
	if !errors.As(err, &re) {
		t.Errorf("expected a *ResolveError, got %T", err)
	}
}

func TestController(t *testing.T) {
	store := NewStore()

	counter := Stored(0)

	ctrl := Accessor(store, counter)

	val, _ := ctrl.Get()
	if val != 0 {
		t.Errorf("expected 0, got %d", val)
	}

	if err := ctrl.Update(5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	val, _ = ctrl.Get()
	if val != 5 {
		t.Errorf("expected 5, got %d", val)
	}

	if !ctrl.IsCached() {
		t.Error("expected value to be cached")
	}

	if _, ok := ctrl.Peek(); !ok {
		t.Error("expected Peek to find a cached value")
	}

	if err := ctrl.Release(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ctrl.IsCached() {
		t.Error("expected value to not be cached after release")
	}

	val, err := ctrl.Reload()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != 0 {
		t.Errorf("expected reload to re-run the factory, got %d", val)
	}
}

func TestTags(t *testing.T) {
	versionTag := NewTag[string]("version")

	counter := Provide(func(rc *ReadCtx) (int, error) {
		return 0, nil
	}, WithTag(versionTag, "1.0.0"), WithName("counter"))

	version, ok := versionTag.Get(counter)
	if !ok || version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q (ok=%v)", version, ok)
	}

	name, ok := NameTag().Get(counter)
	if !ok || name != "counter" {
		t.Errorf("expected name counter, got %q (ok=%v)", name, ok)
	}

	if got := versionTag.GetOrDefault(counter, "none"); got != "1.0.0" {
		t.Errorf("expected 1.0.0, got %s", got)
	}

	other := Provide(func(rc *ReadCtx) (int, error) { return 0, nil })
	if got := versionTag.GetOrDefault(other, "none"); got != "none" {
		t.Errorf("expected default, got %s", got)
	}
}

func TestStoreTags(t *testing.T) {
	poolTag := NewTag[int]("db.pool_size")

	store := NewStore(WithStoreTag(poolTag, 10))

	atom := Provide(func(rc *ReadCtx) (int, error) {
		return GetTagOrDefault(rc, poolTag, 1), nil
	})

	val, err := Resolve(store, atom)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != 10 {
		t.Errorf("expected 10, got %d", val)
	}
}

func TestPresetValue(t *testing.T) {
	real := Provide(func(rc *ReadCtx) (string, error) {
		return "real", nil
	})

	store := NewStore(WithPreset(real, "mock"))

	val, err := Resolve(store, real)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != "mock" {
		t.Errorf("expected mock, got %s", val)
	}
}

func TestPresetAtom(t *testing.T) {
	real := Provide(func(rc *ReadCtx) (string, error) {
		return "real", nil
	})
	replacement := Provide(func(rc *ReadCtx) (string, error) {
		return "replacement", nil
	})

	store := NewStore(WithPreset(real, replacement))

	val, err := Resolve(store, real)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != "replacement" {
		t.Errorf("expected replacement, got %s", val)
	}
}
