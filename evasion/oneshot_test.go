package evasion

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestOneShot(t *testing.T) {
	o := NewOneShot[string]()
	_, ok := o.Get()
	test.That(t, ok, test.ShouldBeFalse)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := o.Wait(ctx)
	test.That(t, err, test.ShouldBeError, context.DeadlineExceeded)

	got := make(chan string)
	go func() {
		v, err := o.Wait(context.Background())
		if err == nil {
			got <- v
		}
	}()
	test.That(t, o.Set("urdf"), test.ShouldBeTrue)
	test.That(t, <-got, test.ShouldEqual, "urdf")

	test.That(t, o.Set("other"), test.ShouldBeFalse)
	v, ok := o.Get()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, "urdf")
	<-o.Done()
}
