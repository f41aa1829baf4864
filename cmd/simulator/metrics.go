package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// prometheusRegistryBundle keeps the registry the collectors register
// against separate from the global default registry, so a simulator run
// embedded as a library elsewhere never fights over DefaultRegisterer.
type prometheusRegistryBundle struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

func newPrometheusRegistry() *prometheusRegistryBundle {
	reg := prometheus.NewRegistry()
	return &prometheusRegistryBundle{registerer: reg, gatherer: reg}
}

func (b *prometheusRegistryBundle) handler() http.Handler {
	return promhttp.HandlerFor(b.gatherer, promhttp.HandlerOpts{})
}
