// Package jotai provides pull-based reactive state cells for Go, with a
// bridge that turns push-based sources (anything with a subscribe/
// unsubscribe contract) into cells that are read on demand.
//
// # Overview
//
// The package is organized around three concepts:
//
//  1. Atoms: units of state with explicit dependencies
//  2. Stores: lifecycle managers that resolve, cache, and watch atom values
//  3. Observable bridges: composed atoms fed by push-based sources
//
// # Basic Usage
//
// Create atoms to define your state graph:
//
//	store := jotai.NewStore()
//
//	config := jotai.Provide(func(rc *jotai.ReadCtx) (*Config, error) {
//	    return &Config{Port: 8080}, nil
//	})
//
//	server := jotai.Derive1(
//	    config,
//	    func(rc *jotai.ReadCtx, cfg *jotai.Controller[*Config]) (*Server, error) {
//	        c, _ := cfg.Get()
//	        return NewServer(c.Port), nil
//	    },
//	)
//
// Access values through controllers:
//
//	serverCtrl := jotai.Accessor(store, server)
//	srv, err := serverCtrl.Get()
//
// # Dependency Modes
//
// Dependencies can be resolved in different modes:
//
//	// Static: resolve once, cache forever (default)
//	// Reactive: invalidate and re-resolve when the dependency changes
//	counter := jotai.Stored(0)
//
//	doubled := jotai.Derive1(
//	    counter.Reactive(),
//	    func(rc *jotai.ReadCtx, c *jotai.Controller[int]) (int, error) {
//	        val, _ := c.Get()
//	        return val * 2, nil
//	    },
//	)
//
//	jotai.Update(store, counter, 5) // invalidates doubled
//
//	// Lazy: defer resolution until explicitly requested
//	logger := jotai.Derive1(
//	    config.Lazy(),
//	    func(rc *jotai.ReadCtx, cfg *jotai.Controller[*Config]) (*Logger, error) {
//	        // Only resolved when the logger is explicitly accessed
//	    },
//	)
//
// # Observable Bridges
//
// FromObservable attaches a push-based source to a composed atom. The first
// read blocks until the source's first value or error; once the atom is
// watched, later emissions are visible synchronously on the next read:
//
//	prices := jotai.FromObservable(
//	    func(rc *jotai.ReadCtx) (jotai.Observable[float64], error) {
//	        return priceFeed, nil
//	    },
//	    jotai.WithInitialValue(0.0),
//	    jotai.WithIdleTimeout[float64](30*time.Second),
//	)
//
//	price, err := jotai.ResolveContext(ctx, store, prices)
//
//	stop := jotai.Watch(store, prices, func(p float64) {
//	    fmt.Println("price:", p)
//	})
//	defer stop() // releases the subscription
//
// Updating a composed atom writes through to its current value while it is
// watched; writes while unwatched are silently ignored. Sources may expose a
// canonical underlying source via CanonicalProvider, and may fail
// subscription with an error, which fails the read that attached.
//
// # Resource Cleanup
//
// Register cleanup functions for automatic resource management:
//
//	db := jotai.Provide(func(rc *jotai.ReadCtx) (*DB, error) {
//	    database := OpenDB()
//	    rc.OnCleanup(func() error {
//	        return database.Close()
//	    })
//	    return database, nil
//	})
//
// Cleanup functions are called when reactive dependents are invalidated,
// when a controller releases the atom, and when the store is disposed.
//
// # Testing with Presets
//
// Replace atoms with test doubles:
//
//	testStore := jotai.NewStore(
//	    jotai.WithPreset(realDB, mockDB),
//	)
//
// # Extensions
//
// Extensions provide cross-cutting concerns through lifecycle hooks; see the
// extensions package for slog-based operation logging, Prometheus metrics,
// and dependency-graph dumps on resolution errors.
//
// # Thread Safety
//
// All operations are safe for concurrent use: stores can be accessed
// concurrently, controllers can be shared between goroutines, and source
// callbacks may fire from any goroutine.
package jotai
