package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

func newTestScheduler() *Scheduler {
	return New(zap.NewNop().Sugar())
}

func TestScheduler(t *testing.T) {
	Convey("Given a Scheduler", t, func() {
		Convey("New function", func() {
			scheduler := newTestScheduler()

			Convey("It should create a new scheduler successfully", func() {
				So(scheduler, ShouldNotBeNil)
				So(scheduler.cron, ShouldNotBeNil)
				So(scheduler.Next().IsZero(), ShouldBeTrue)
			})
		})

		Convey("AddJob function", func() {
			scheduler := newTestScheduler()

			Convey("When adding a job with a valid cron spec", func() {
				tempDir := t.TempDir()
				logFile := filepath.Join(tempDir, "job.log")
				job := func(ctx context.Context) error {
					return os.WriteFile(logFile, []byte("executed"), 0644)
				}

				err := scheduler.AddJob("* * * * * *", job)

				Convey("It should run the job", func() {
					So(err, ShouldBeNil)

					scheduler.Start()
					So(scheduler.Next().IsZero(), ShouldBeFalse)
					time.Sleep(2 * time.Second)
					scheduler.Stop()

					content, err := os.ReadFile(logFile)
					So(err, ShouldBeNil)
					So(string(content), ShouldEqual, "executed")
				})
			})

			Convey("When adding a job with an invalid cron spec", func() {
				err := scheduler.AddJob("invalid spec", func(ctx context.Context) error { return nil })

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "expected exactly 6 fields")
				})
			})
		})

		Convey("Stop method", func() {
			scheduler := newTestScheduler()

			Convey("When a job is still running", func() {
				var started, cancelled atomic.Bool
				err := scheduler.AddJob("* * * * * *", func(ctx context.Context) error {
					if !started.CompareAndSwap(false, true) {
						return nil
					}
					<-ctx.Done()
					cancelled.Store(true)
					return ctx.Err()
				})
				So(err, ShouldBeNil)

				Convey("It should cancel its context and wait for it", func() {
					scheduler.Start()
					time.Sleep(1500 * time.Millisecond)
					So(started.Load(), ShouldBeTrue)

					So(func() { scheduler.Stop() }, ShouldNotPanic)
					So(cancelled.Load(), ShouldBeTrue)
				})
			})
		})

		Convey("NextAfter function", func() {
			Convey("A daily midnight spec fires at the next local midnight", func() {
				now := time.Date(2024, 3, 10, 23, 59, 30, 0, time.Local)
				next, err := NextAfter("0 0 0 * * *", now)
				So(err, ShouldBeNil)
				So(next.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local)), ShouldBeTrue)
			})

			Convey("Just after midnight it waits for the following day", func() {
				now := time.Date(2024, 3, 11, 0, 0, 30, 0, time.Local)
				next, err := NextAfter("0 0 0 * * *", now)
				So(err, ShouldBeNil)
				So(next.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)), ShouldBeTrue)
			})

			Convey("An invalid spec is rejected", func() {
				_, err := NextAfter("every night", time.Now())
				So(err, ShouldNotBeNil)
			})
		})
	})
}
