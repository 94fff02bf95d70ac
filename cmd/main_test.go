package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/elimvote/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("ELIMVOTE_ADDR", ":8080")
		t.Setenv("ELIMVOTE_STORE_DRIVER", "memory")
		t.Setenv("ELIMVOTE_ROUNDS", "week1,week2")
		t.Setenv("ELIMVOTE_ROSTER", "Ann,Ben,Cat,Dan")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")

		convey.Convey("When the service is built and started", func() {
			svc, closeStore, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeStore()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			srv := httptest.NewServer(newMux(ctx, svc, cfg))
			defer srv.Close()

			convey.Convey("Then the API and docs are served", func() {
				resp, err := http.Get(srv.URL + "/state")
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				var view struct {
					CurrentRound string   `json:"current_round"`
					Participants []string `json:"participants"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&view), convey.ShouldBeNil)
				convey.So(view.CurrentRound, convey.ShouldEqual, "week1")
				convey.So(view.Participants, convey.ShouldResemble, []string{"Ann", "Ben", "Cat", "Dan"})

				docs, err := http.Get(srv.URL + "/openapi.yaml")
				convey.So(err, convey.ShouldBeNil)
				defer docs.Body.Close()
				convey.So(docs.StatusCode, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the metrics updater does not panic", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

				short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
				defer stop()
				convey.So(func() { startServiceMetricsUpdater(short, svc) }, convey.ShouldNotPanic)
			})
		})
	})

	convey.Convey("Given an unknown store driver", t, func() {
		t.Setenv("ELIMVOTE_STORE_DRIVER", "etcd")

		convey.Convey("When configuration is loaded", func() {
			_, err := config.Load(context.Background())

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
