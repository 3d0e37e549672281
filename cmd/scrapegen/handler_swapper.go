package main

import (
	"net/http"
	"sync/atomic"
)

// handlerSwapper serves through whichever panel handler was installed last.
// serve swaps in a rebuilt panel when a SIGHUP changes provider settings.
type handlerSwapper struct {
	current atomic.Pointer[swappable]
}

type swappable struct{ http.Handler }

func newHandlerSwapper(h http.Handler) *handlerSwapper {
	s := &handlerSwapper{}
	s.Swap(h)
	return s
}

func (s *handlerSwapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.current.Load().ServeHTTP(w, r)
}

// Swap replaces the underlying handler. In-flight requests finish on the
// handler they started with.
func (s *handlerSwapper) Swap(h http.Handler) {
	s.current.Store(&swappable{h})
}
