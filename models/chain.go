package models

// Map derives a model by transforming another model's values. The key is
// inherited from the source, so derived instances dedupe exactly like their
// sources; name becomes the derived family name and must be unique per
// (source, transformation) pair. The derived model emits as soon as the
// source does.
func Map[A, B any](def Definition[A], name string, f func(A) B) Definition[B] {
	return Definition[B]{
		Name: name,
		Key:  def.Key,
		Run: func(rt *Runtime, emit func(B)) func() {
			source := Subscribe(rt.Registry(), def)

			done := make(chan struct{})
			go func() {
				defer close(done)
				for v := range source.Values() {
					emit(f(v))
				}
			}()

			return func() {
				source.Close()
				<-done
			}
		},
	}
}

// Chain switches models: every value from the source selects a new inner
// model via next, closing the previous inner subscription. Values from the
// current inner model are forwarded until the source emits again.
func Chain[A, B any](def Definition[A], name string, next func(A) Definition[B]) Definition[B] {
	return Definition[B]{
		Name: name,
		Key:  def.Key,
		Run: func(rt *Runtime, emit func(B)) func() {
			source := Subscribe(rt.Registry(), def)

			done := make(chan struct{})
			go func() {
				defer close(done)

				var inner *Subscription[B]
				var innerCh <-chan B
				defer func() {
					if inner != nil {
						inner.Close()
					}
				}()

				for {
					select {
					case a, ok := <-source.Values():
						if !ok {
							return
						}
						if inner != nil {
							inner.Close()
						}
						inner = Subscribe(rt.Registry(), next(a))
						innerCh = inner.Values()

					case b, ok := <-innerCh:
						if !ok {
							// inner model completed; hold for the next switch
							innerCh = nil
							continue
						}
						emit(b)
					}
				}
			}()

			return func() {
				source.Close()
				<-done
			}
		},
	}
}
