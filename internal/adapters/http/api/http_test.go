package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/okian/elimvote/internal/adapters/http/api"
	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/adapters/repository"
	service "github.com/okian/elimvote/internal/app"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/types"
	"github.com/okian/elimvote/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	jar, _ := cookiejar.New(nil)
	return &client{base: base, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		So(json.NewEncoder(&buf).Encode(body), ShouldBeNil)
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	So(err, ShouldBeNil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		So(json.NewDecoder(resp.Body).Decode(out), ShouldBeNil)
	}
	return resp.StatusCode
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func startServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	repo := repository.New(kv, repository.WithRoster([]string{"A", "B", "C", "D", "E", "F"}))
	svc := service.New(repo, repository.NewMarkers(kv, round.Default()), service.WithAdminSecret("admin123"))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func TestHealth(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, _ := startServer(t)
		c := newClient(srv.URL)

		Convey("When /healthz is requested", func() {
			var body map[string]any
			status := c.do(http.MethodGet, "/healthz", nil, &body)

			Convey("Then it reports ok with stats", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "ok")
				So(body["stats"], ShouldNotBeNil)
			})
		})

		Convey("When /metrics is requested", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then prometheus text is served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestVoterFlow(t *testing.T) {
	Convey("Given a voter with a cookie jar", t, func() {
		srv, _ := startServer(t)
		voter := newClient(srv.URL)

		Convey("When the state is fetched", func() {
			var view types.View
			status := voter.do(http.MethodGet, "/state", nil, &view)

			Convey("Then the voter may vote on day1", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(view.CurrentRound, ShouldEqual, "day1")
				So(view.CanVote, ShouldBeTrue)
				So(view.Participants, ShouldHaveLength, 6)
			})
		})

		Convey("When a ballot is posted", func() {
			var res types.Result
			status := voter.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"A", "B", "C"}}, &res)
			So(status, ShouldEqual, http.StatusCreated)
			So(res.View.HasVoted, ShouldBeTrue)

			Convey("Then a second ballot from the same cookie conflicts", func() {
				var e errorBody
				status := voter.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"D", "E", "F"}}, &e)
				So(status, ShouldEqual, http.StatusConflict)
				So(e.Code, ShouldEqual, "ALREADY_VOTED")
			})

			Convey("Then another browser may vote", func() {
				other := newClient(srv.URL)
				status := other.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"D", "E", "F"}}, nil)
				So(status, ShouldEqual, http.StatusCreated)
			})

			Convey("Then the standings are hidden from voters", func() {
				var e errorBody
				status := voter.do(http.MethodGet, "/standings?round=day1", nil, &e)
				So(status, ShouldEqual, http.StatusForbidden)
				So(e.Code, ShouldEqual, "RESULTS_HIDDEN")
			})
		})

		Convey("When a ballot has two names", func() {
			var e errorBody
			status := voter.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"A", "B"}}, &e)

			Convey("Then it is a bad request", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(e.Code, ShouldEqual, "INVALID_SELECTION_COUNT")
			})
		})

		Convey("When the body is not JSON", func() {
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/ballots", bytes.NewBufferString("{"))
			resp, err := voter.http.Do(req)
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unknown round is requested", func() {
			status := voter.do(http.MethodGet, "/standings?round=day7", nil, nil)
			So(status, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAdminFlow(t *testing.T) {
	Convey("Given an admin client", t, func() {
		srv, _ := startServer(t)
		admin := newClient(srv.URL)

		Convey("When admin routes are called without login", func() {
			var e errorBody
			status := admin.do(http.MethodPost, "/admin/publish", nil, &e)

			Convey("Then they are unauthorized", func() {
				So(status, ShouldEqual, http.StatusUnauthorized)
				So(e.Code, ShouldEqual, "AUTH_FAILED")
			})
		})

		Convey("When logging in with the wrong secret", func() {
			status := admin.do(http.MethodPost, "/admin/login", map[string]string{"secret": "nope"}, nil)

			Convey("Then it fails", func() {
				So(status, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When logged in", func() {
			So(admin.do(http.MethodPost, "/admin/login", map[string]string{"secret": "admin123"}, nil), ShouldEqual, http.StatusOK)
			voter := newClient(srv.URL)
			So(voter.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"A", "B", "C"}}, nil), ShouldEqual, http.StatusCreated)

			Convey("Then live standings are visible to the admin", func() {
				var rows []types.Standing
				So(admin.do(http.MethodGet, "/standings", nil, &rows), ShouldEqual, http.StatusOK)
				So(rows[0].Name, ShouldEqual, "A")
				So(rows[0].Votes, ShouldEqual, 1)
			})

			Convey("Then closing without a token conflicts", func() {
				var e errorBody
				So(admin.do(http.MethodPost, "/admin/close", map[string]string{}, &e), ShouldEqual, http.StatusConflict)
				So(e.Code, ShouldEqual, "CONFIRMATION_REQUIRED")
			})

			Convey("Then an unknown confirmation action is a bad request", func() {
				So(admin.do(http.MethodPost, "/admin/confirmations", map[string]string{"action": "publish"}, nil), ShouldEqual, http.StatusBadRequest)
			})

			Convey("And the full round cycle runs", func() {
				var tok struct {
					Token string `json:"token"`
				}
				So(admin.do(http.MethodPost, "/admin/confirmations", map[string]string{"action": "close"}, &tok), ShouldEqual, http.StatusCreated)
				So(admin.do(http.MethodPost, "/admin/close", map[string]string{"token": tok.Token}, nil), ShouldEqual, http.StatusOK)
				So(admin.do(http.MethodPost, "/admin/publish", nil, nil), ShouldEqual, http.StatusOK)

				var rows []types.Standing
				So(voter.do(http.MethodGet, "/standings?round=day1", nil, &rows), ShouldEqual, http.StatusOK)
				So(rows, ShouldHaveLength, 5)

				So(admin.do(http.MethodPost, "/admin/confirmations", map[string]string{"action": "reset"}, &tok), ShouldEqual, http.StatusCreated)
				var res types.AdminResult
				So(admin.do(http.MethodPost, "/admin/reset", map[string]string{"token": tok.Token}, &res), ShouldEqual, http.StatusOK)

				Convey("Then day2 is current and the voter may vote again", func() {
					So(res.View.CurrentRound, ShouldEqual, "day2")
					var history map[string][]types.Standing
					So(voter.do(http.MethodGet, "/history", nil, &history), ShouldEqual, http.StatusOK)
					So(history["day1"][0].Name, ShouldEqual, "A")
					So(voter.do(http.MethodPost, "/ballots", map[string]any{"selections": []string{"D", "E", "F"}}, nil), ShouldEqual, http.StatusCreated)
				})

				Convey("Then day1 can be wiped with its own token", func() {
					So(admin.do(http.MethodPost, "/admin/confirmations", map[string]string{"action": "wipe", "round": "day1"}, &tok), ShouldEqual, http.StatusCreated)
					var wiped types.AdminResult
					So(admin.do(http.MethodPost, "/admin/wipe", map[string]string{"token": tok.Token, "round": "day1"}, &wiped), ShouldEqual, http.StatusOK)
					_, archived := wiped.View.History["day1"]
					So(archived, ShouldBeFalse)
				})
			})

			Convey("Then participants can be added and removed", func() {
				var res types.AdminResult
				So(admin.do(http.MethodPost, "/admin/participants", map[string]string{"name": "Gil"}, &res), ShouldEqual, http.StatusCreated)
				So(res.View.Participants, ShouldContain, "Gil")

				var e errorBody
				So(admin.do(http.MethodPost, "/admin/participants", map[string]string{"name": "gil"}, &e), ShouldEqual, http.StatusConflict)
				So(e.Code, ShouldEqual, "DUPLICATE_NAME")

				var removed types.AdminResult
				So(admin.do(http.MethodDelete, "/admin/participants/Gil", nil, &removed), ShouldEqual, http.StatusOK)
				So(removed.View.Participants, ShouldNotContain, "Gil")
				So(admin.do(http.MethodDelete, "/admin/participants/Gil", nil, nil), ShouldEqual, http.StatusNotFound)
			})

			Convey("Then logging out drops admin access", func() {
				So(admin.do(http.MethodPost, "/admin/logout", nil, nil), ShouldEqual, http.StatusOK)
				So(admin.do(http.MethodGet, "/admin/state", nil, nil), ShouldEqual, http.StatusUnauthorized)
			})
		})
	})
}
