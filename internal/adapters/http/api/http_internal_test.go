package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteJSON(t *testing.T) {
	Convey("Given an encodable value", t, func() {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusCreated, map[string]float64{"probability": 73.65})

		Convey("Then the status and body are written", func() {
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldEqual, "{\"probability\":73.65}\n")
		})
	})

	Convey("Given a value holding NaN", t, func() {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusOK, map[string]float64{"probability": math.NaN()})

		Convey("Then a 500 with an error body is written instead of an empty success", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)

			var body errorResponse
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, "internal_error")
			So(body.Error, ShouldEqual, http.StatusText(http.StatusInternalServerError))
		})
	})
}

func TestFailureClass(t *testing.T) {
	Convey("Given error statuses", t, func() {
		cases := []struct {
			status   int
			kind     string
			severity string
		}{
			{http.StatusBadRequest, "client_error", "medium"},
			{http.StatusUnauthorized, "unauthorized", "medium"},
			{http.StatusNotFound, "not_found", "medium"},
			{http.StatusTooManyRequests, "rate_limit", "medium"},
			{http.StatusServiceUnavailable, "dataset_unavailable", "high"},
			{http.StatusInternalServerError, "server_error", "high"},
		}
		for _, c := range cases {
			kind, severity := failureClass(c.status)
			So(kind, ShouldEqual, c.kind)
			So(severity, ShouldEqual, c.severity)
		}
	})
}

func TestStatusRecorder(t *testing.T) {
	Convey("Given a handler that writes a header twice", t, func() {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		rec.WriteHeader(http.StatusNotFound)
		rec.WriteHeader(http.StatusInternalServerError)

		Convey("Then the first status is kept", func() {
			So(rec.status, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a handler that only writes a body", t, func() {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		_, err := rec.Write([]byte("ok"))
		So(err, ShouldBeNil)
		rec.WriteHeader(http.StatusTeapot)

		Convey("Then the implicit 200 stands", func() {
			So(rec.status, ShouldEqual, http.StatusOK)
		})
	})
}
