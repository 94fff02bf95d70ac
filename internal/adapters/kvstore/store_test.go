package kvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/elimvote/internal/adapters/kvstore"
	. "github.com/smartystreets/goconvey/convey"
)

// contract exercises the behaviour every backend must share.
func contract(t *testing.T, name string, open func(t *testing.T) kvstore.Store) {
	t.Helper()
	Convey("Given a "+name+" store", t, func() {
		ctx := context.Background()
		s := open(t)
		defer func() { _ = s.Close() }()

		Convey("When a key is missing", func() {
			_, ok, err := s.Get(ctx, "voted_day1")

			Convey("Then Get reports absence without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a key is set twice", func() {
			So(s.Set(ctx, "state", `{"a":1}`), ShouldBeNil)
			So(s.Set(ctx, "state", `{"a":2}`), ShouldBeNil)
			v, ok, err := s.Get(ctx, "state")

			Convey("Then the last write wins", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, `{"a":2}`)
			})
		})

		Convey("When keys with separators are used", func() {
			So(s.Set(ctx, "voters/abc/voted_day2", "true"), ShouldBeNil)
			v, ok, err := s.Get(ctx, "voters/abc/voted_day2")

			Convey("Then they round-trip", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "true")
			})
		})

		Convey("When a key is removed", func() {
			So(s.Set(ctx, "voted_day1", "true"), ShouldBeNil)
			So(s.Remove(ctx, "voted_day1"), ShouldBeNil)
			_, ok, err := s.Get(ctx, "voted_day1")

			Convey("Then it is gone and removing again is fine", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(s.Remove(ctx, "voted_day1"), ShouldBeNil)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	contract(t, "memory", func(t *testing.T) kvstore.Store { return kvstore.NewMemoryStore() })
}

func TestFileStore(t *testing.T) {
	contract(t, "file", func(t *testing.T) kvstore.Store {
		s, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "data"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	})

	Convey("Given a file store", t, func() {
		dir := t.TempDir()
		s, err := kvstore.NewFileStore(dir)
		So(err, ShouldBeNil)

		Convey("When a value is written", func() {
			So(s.Set(context.Background(), "state", "doc"), ShouldBeNil)

			Convey("Then no temp file is left behind", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Name(), ShouldEqual, "state.val")
			})
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	contract(t, "sqlite", func(t *testing.T) kvstore.Store {
		s, err := kvstore.NewSQLStore(context.Background(), kvstore.DriverSQLite, filepath.Join(t.TempDir(), "vote.db"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ELIMVOTE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ELIMVOTE_TEST_POSTGRES_DSN not set")
	}
	contract(t, "postgres", func(t *testing.T) kvstore.Store {
		s, err := kvstore.NewSQLStore(context.Background(), kvstore.DriverPostgres, dsn)
		if err != nil {
			t.Fatal(err)
		}
		return kvstore.WithPrefix(s, t.Name()+":")
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ELIMVOTE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ELIMVOTE_TEST_REDIS_ADDR not set")
	}
	contract(t, "redis", func(t *testing.T) kvstore.Store {
		s, err := kvstore.NewRedisStore(context.Background(), addr, 0)
		if err != nil {
			t.Fatal(err)
		}
		return kvstore.WithPrefix(s, t.Name()+":")
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store configs", t, func() {
		ctx := context.Background()

		Convey("When the driver is empty", func() {
			s, err := kvstore.Open(ctx, kvstore.Config{})

			Convey("Then an instrumented memory store is returned", func() {
				So(err, ShouldBeNil)
				So(s.Set(ctx, "k", "v"), ShouldBeNil)
				v, ok, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "v")
			})
		})

		Convey("When a namespace is configured", func() {
			inner := kvstore.NewMemoryStore()
			s := kvstore.WithPrefix(inner, "class7:")
			So(s.Set(ctx, "state", "x"), ShouldBeNil)

			Convey("Then keys are prefixed in the backend", func() {
				So(inner.Keys(), ShouldResemble, []string{"class7:state"})
			})
		})

		Convey("When the driver is unknown", func() {
			_, err := kvstore.Open(ctx, kvstore.Config{Driver: "etcd"})

			Convey("Then Open fails", func() {
				So(err, ShouldWrap, kvstore.ErrUnknownDriver)
			})
		})

		Convey("When the file driver has no directory", func() {
			_, err := kvstore.Open(ctx, kvstore.Config{Driver: kvstore.DriverFile})

			Convey("Then Open fails", func() {
				So(err, ShouldWrap, kvstore.ErrStore)
			})
		})
	})
}
