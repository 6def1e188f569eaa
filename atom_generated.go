package jotai

func Derive1[T any, D1 any](
	d1 Dependency,
	factory func(*ReadCtx, *Controller[D1]) (T, error),
	opts ...AtomOption,
) *Atom[T] {
	a := &Atom[T]{
		deps: []Dependency{d1},
		factory: func(rc *ReadCtx) (T, error) {
			ctrl1 := &Controller[D1]{
				atom:  d1.Atom().(*Atom[D1]),
				store: rc.store,
			}
			return factory(rc, ctrl1)
		},
		tags: make(map[any]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func Derive2[T any, D1 any, D2 any](
	d1 Dependency,
	d2 Dependency,
	factory func(*ReadCtx, *Controller[D1], *Controller[D2]) (T, error),
	opts ...AtomOption,
) *Atom[T] {
	a := &Atom[T]{
		deps: []Dependency{d1, d2},
		factory: func(rc *ReadCtx) (T, error) {
			ctrl1 := &Controller[D1]{
				atom:  d1.Atom().(*Atom[D1]),
				store: rc.store,
			}
			ctrl2 := &Controller[D2]{
				atom:  d2.Atom().(*Atom[D2]),
				store: rc.store,
			}
			return factory(rc, ctrl1, ctrl2)
		},
		tags: make(map[any]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func Derive3[T any, D1 any, D2 any, D3 any](
	d1 Dependency,
	d2 Dependency,
	d3 Dependency,
	factory func(*ReadCtx, *Controller[D1], *Controller[D2], *Controller[D3]) (T, error),
	opts ...AtomOption,
) *Atom[T] {
	a := &Atom[T]{
		deps: []Dependency{d1, d2, d3},
		factory: func(rc *ReadCtx) (T, error) {
			ctrl1 := &Controller[D1]{
				atom:  d1.Atom().(*Atom[D1]),
				store: rc.store,
			}
			ctrl2 := &Controller[D2]{
				atom:  d2.Atom().(*Atom[D2]),
				store: rc.store,
			}
			ctrl3 := &Controller[D3]{
				atom:  d3.Atom().(*Atom[D3]),
				store: rc.store,
			}
			return factory(rc, ctrl1, ctrl2, ctrl3)
		},
		tags: make(map[any]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func Derive4[T any, D1 any, D2 any, D3 any, D4 any](
	d1 Dependency,
	d2 Dependency,
	d3 Dependency,
	d4 Dependency,
	factory func(*ReadCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4]) (T, error),
	opts ...AtomOption,
) *Atom[T] {
	a := &Atom[T]{
		deps: []Dependency{d1, d2, d3, d4},
		factory: func(rc *ReadCtx) (T, error) {
			ctrl1 := &Controller[D1]{
				atom:  d1.Atom().(*Atom[D1]),
				store: rc.store,
			}
			ctrl2 := &Controller[D2]{
				atom:  d2.Atom().(*Atom[D2]),
				store: rc.store,
			}
			ctrl3 := &Controller[D3]{
				atom:  d3.Atom().(*Atom[D3]),
				store: rc.store,
			}
			ctrl4 := &Controller[D4]{
				atom:  d4.Atom().(*Atom[D4]),
				store: rc.store,
			}
			return factory(rc, ctrl1, ctrl2, ctrl3, ctrl4)
		},
		tags: make(map[any]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}
