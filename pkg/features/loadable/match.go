package loadable

// Handler handles a specific loadable state.
type Handler[T, R any] interface {
	handle(Loadable[T]) (R, bool)
}

// Match returns the result of the first handler for the state of l.
// ok is false when no handler matched.
//
// Example:
//
//	label, _ := loadable.Match(l,
//	    loadable.OnLoading[User](func() string { return "loading" }),
//	    loadable.OnError[User](func(err error) string { return err.Error() }),
//	    loadable.OnReady(func(u User) string { return u.Name }),
//	)
func Match[T, R any](l Loadable[T], handlers ...Handler[T, R]) (result R, ok bool) {
	for _, h := range handlers {
		if r, ok := h.handle(l); ok {
			return r, true
		}
	}
	return result, false
}

// Handler implementations

type loadingHandler[T, R any] struct {
	fn func() R
}

func (h loadingHandler[T, R]) handle(l Loadable[T]) (R, bool) {
	if l.State == Loading {
		return h.fn(), true
	}
	var zero R
	return zero, false
}

type errorHandler[T, R any] struct {
	fn func(error) R
}

func (h errorHandler[T, R]) handle(l Loadable[T]) (R, bool) {
	if l.State == Error {
		return h.fn(l.Err), true
	}
	var zero R
	return zero, false
}

type readyHandler[T, R any] struct {
	fn func(T) R
}

func (h readyHandler[T, R]) handle(l Loadable[T]) (R, bool) {
	if l.State == Ready {
		return h.fn(l.Data), true
	}
	var zero R
	return zero, false
}

type defaultHandler[T, R any] struct {
	fn func() R
}

func (h defaultHandler[T, R]) handle(Loadable[T]) (R, bool) {
	return h.fn(), true
}

// Constructors

// OnLoading handles the Loading state.
func OnLoading[T, R any](fn func() R) Handler[T, R] {
	return loadingHandler[T, R]{fn: fn}
}

// OnError handles the Error state.
func OnError[T, R any](fn func(error) R) Handler[T, R] {
	return errorHandler[T, R]{fn: fn}
}

// OnReady handles the Ready state.
func OnReady[T, R any](fn func(T) R) Handler[T, R] {
	return readyHandler[T, R]{fn: fn}
}

// Otherwise matches any state. Place it last.
func Otherwise[T, R any](fn func() R) Handler[T, R] {
	return defaultHandler[T, R]{fn: fn}
}
