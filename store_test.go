package jotai

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWatch_DirectUpdate(t *testing.T) {
	store := NewStore()

	counter := Stored(0)

	got := make(chan int, 4)
	stop := Watch(store, counter, func(v int) {
		got <- v
	})
	defer stop()

	if err := Update(store, counter, 7); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case v := <-got:
		if v != 7 {
			t.Errorf("expected 7, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher was not notified")
	}
}

func TestWatch_ReactiveDependent(t *testing.T) {
	store := NewStore()

	base := Stored(1)

	doubled := Derive1(
		base.Reactive(),
		func(rc *ReadCtx, c *Controller[int]) (int, error) {
			val, _ := c.Get()
			return val * 2, nil
		},
	)

	if _, err := Resolve(store, doubled); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := make(chan int, 4)
	stop := Watch(store, doubled, func(v int) {
		got <- v
	})
	defer stop()

	if err := Update(store, base, 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case v := <-got:
		if v != 10 {
			t.Errorf("expected 10, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("dependent watcher was not notified")
	}
}

func TestWatch_StopRemovesWatcher(t *testing.T) {
	store := NewStore()

	counter := Stored(0)

	var mu sync.Mutex
	notifications := 0
	stop := Watch(store, counter, func(v int) {
		mu.Lock()
		notifications++
		mu.Unlock()
	})

	if err := Update(store, counter, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stop()
	stop() // stopping twice is safe

	if err := Update(store, counter, 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if notifications != 1 {
		t.Errorf("expected exactly 1 notification, got %d", notifications)
	}
}

func TestObserveHooks(t *testing.T) {
	store := NewStore()

	events := []string{}
	var mu sync.Mutex
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}

	atom := Stored(0)
	atom.OnObserve(func(s *Store) func() {
		record("observe")
		return func() {
			record("unobserve")
		}
	})

	stop1 := Watch(store, atom, func(int) {})
	stop2 := Watch(store, atom, func(int) {})

	stop2() // still one watcher left
	stop1()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "observe" || events[1] != "unobserve" {
		t.Errorf("expected hooks to fire on first watch and last stop, got %v", events)
	}
}

func TestExtension_WrapsResolveAndUpdate(t *testing.T) {
	ext := &opSpyExtension{}
	store := NewStore(WithExtension(ext))

	counter := Stored(0)

	if _, err := Resolve(store, counter); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := Update(store, counter, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ext.mu.Lock()
	defer ext.mu.Unlock()
	if len(ext.kinds) != 2 || ext.kinds[0] != OpResolve || ext.kinds[1] != OpUpdate {
		t.Errorf("expected [resolve update], got %v", ext.kinds)
	}
}

func TestDispose_Idempotent(t *testing.T) {
	store := NewStore()

	counter := Stored(0)
	if _, err := Resolve(store, counter); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := store.Dispose(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.Dispose(); err != nil {
		t.Fatalf("expected no error on second dispose, got %v", err)
	}

	if _, err := Resolve(store, counter); err != ErrStoreDisposed {
		t.Errorf("expected ErrStoreDisposed, got %v", err)
	}
	if err := Update(store, counter, 1); err != ErrStoreDisposed {
		t.Errorf("expected ErrStoreDisposed, got %v", err)
	}
}

func TestConcurrentResolve_SingleFlight(t *testing.T) {
	store := NewStore()

	var mu sync.Mutex
	factoryRuns := 0

	slow := Provide(func(rc *ReadCtx) (int, error) {
		mu.Lock()
		factoryRuns++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		return 42, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := Resolve(store, slow)
			if err != nil || val != 42 {
				t.Errorf("expected 42, got %d (err=%v)", val, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if factoryRuns != 1 {
		t.Errorf("expected factory to run once, got %d", factoryRuns)
	}
}

func TestResolveContext_Cancellation(t *testing.T) {
	store := NewStore()

	blocked := Provide(func(rc *ReadCtx) (int, error) {
		<-rc.Context().Done()
		return 0, rc.Context().Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ResolveContext(ctx, store, blocked)
	if err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestExportDependencyGraph(t *testing.T) {
	store := NewStore()

	base := Stored(0)
	derived := Derive1(
		base.Reactive(),
		func(rc *ReadCtx, c *Controller[int]) (int, error) {
			val, _ := c.Get()
			return val, nil
		},
	)

	if _, err := Resolve(store, derived); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	graph := store.ExportDependencyGraph()
	dependents, ok := graph[base.Atom()]
	if !ok || len(dependents) != 1 {
		t.Fatalf("expected one dependent of base, got %v", graph)
	}
	if dependents[0] != derived.Atom() {
		t.Error("expected derived to be downstream of base")
	}
}

type opSpyExtension struct {
	BaseExtension
	mu    sync.Mutex
	kinds []OperationKind
}

func (e *opSpyExtension) Name() string { return "op-spy" }

func (e *opSpyExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	e.mu.Lock()
	e.kinds = append(e.kinds, op.Kind)
	e.mu.Unlock()
	return next()
}
