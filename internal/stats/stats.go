package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// Gauge names published by the chat server and read back by the
// health endpoint.
const (
	ConnectionsGauge = "Connections"
	ActiveRoomsGauge = "ActiveRooms"
	QueueLengthGauge = "QueueLength"
)

type StatsProvider interface {
	Set(name string, value int64)
	Value(name string) int64
	RegisterMetric(name string)
	Run()
}

// StatsUpdater publishes gauges to an expvar map. Updates flow through
// a channel consumed by a single updater goroutine; reads are atomic
// on the underlying expvar ints.
type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *gaugeUpdate
}

type gaugeUpdate struct {
	name  string
	value int64
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates a new stats updater instance.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:       new(expvar.Map).Init(),
		updateChan: make(chan *gaugeUpdate, 512),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) updateMetrics() {
	for req := range su.updateChan {
		metric := su.vars.Get(req.name)
		if metric == nil {
			panic("metric not found: " + req.name)
		}

		metric.(*expvar.Int).Set(req.value)
	}
}

func (su *StatsUpdater) Set(name string, value int64) {
	su.updateChan <- &gaugeUpdate{name: name, value: value}
}

func (su *StatsUpdater) Value(name string) int64 {
	metric, ok := su.vars.Get(name).(*expvar.Int)
	if !ok {
		return 0
	}

	return metric.Value()
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

func (su *StatsUpdater) Stop() {
	close(su.updateChan)
}
