package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		panic(err)
	}
	if c := out.GetCounter(); c != nil {
		return c.GetValue()
	}
	return out.GetGauge().GetValue()
}

func histogramCount(r *Registry, phase string) uint64 {
	var out dto.Metric
	h := r.PhaseDuration.WithLabelValues(phase).(prometheus.Histogram)
	if err := h.Write(&out); err != nil {
		panic(err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestRegistry(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		r := NewRegistry()

		Convey("When a successful run is recorded", func() {
			r.RowsRead.Add(10)
			r.RowsDropped.Add(1)
			r.ObservePhase("load", 1500*time.Millisecond)
			r.RunFinished(nil, time.Unix(1700000000, 0))

			Convey("Then counters and the last success gauge reflect it", func() {
				So(value(r.RowsRead), ShouldEqual, 10)
				So(value(r.RowsDropped), ShouldEqual, 1)
				So(value(r.Runs.WithLabelValues(StatusSuccess)), ShouldEqual, 1)
				So(value(r.LastSuccess), ShouldEqual, 1700000000)
				So(histogramCount(r, "load"), ShouldEqual, 1)
			})
		})

		Convey("When a failed run is recorded", func() {
			r.RunFinished(errors.New("boom"), time.Now())

			Convey("Then only the failure counter moves", func() {
				So(value(r.Runs.WithLabelValues(StatusFailure)), ShouldEqual, 1)
				So(value(r.LastSuccess), ShouldEqual, 0)
			})
		})
	})
}

func TestRegistryNamespace(t *testing.T) {
	Convey("Given a custom namespace", t, func() {
		r := NewRegistry(WithNamespace("shop"), WithHistogramBuckets([]float64{1, 2}))
		r.SalesInserted.Inc()

		Convey("Then metric names use it", func() {
			families, err := r.Gatherer().Gather()
			So(err, ShouldBeNil)
			var names []string
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "shop_sales_inserted_total")
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a registry with data", t, func() {
		r := NewRegistry()
		r.SalesSkipped.Add(3)
		path := filepath.Join(t.TempDir(), "retail_etl.prom")

		Convey("When it is written as a textfile", func() {
			So(r.WriteTextfile(path), ShouldBeNil)

			Convey("Then the file holds the exposition format", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "retail_etl_sales_skipped_total 3")
			})
		})
	})
}

func TestPush(t *testing.T) {
	Convey("Given a Pushgateway", t, func() {
		var method, path, body string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			method, path = req.Method, req.URL.Path
			data, _ := io.ReadAll(req.Body)
			body = string(data)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		r := NewRegistry()
		r.RowsRead.Add(5)

		Convey("When metrics are pushed", func() {
			err := r.Push(context.Background(), srv.URL, "retail_etl")

			Convey("Then the job group is replaced", func() {
				So(err, ShouldBeNil)
				So(method, ShouldEqual, http.MethodPut)
				So(path, ShouldEqual, "/metrics/job/retail_etl")
				So(body, ShouldNotBeEmpty)
			})
		})

		Convey("When the gateway is unreachable", func() {
			srv.Close()
			err := r.Push(context.Background(), srv.URL, "retail_etl")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
