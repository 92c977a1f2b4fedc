package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	mux *http.ServeMux
}

func NewRouter(allocationHandler *AllocationHandler, gatherer prometheus.Gatherer) *Router {
	mux := http.NewServeMux()
	allocationHandler.Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Router{mux: mux}
}

func (r *Router) Handler() http.Handler {
	return r.mux
}
