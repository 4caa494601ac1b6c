// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/storekit/lib/testutil"
)

type counterOp int

const (
	increment counterOp = iota
	read
)

// counter returns a loop that counts increments and reports the count
// on read. The final count is stored in total when the loop returns.
func counter(total *int) Loop[counterOp, int] {
	return func(ctx context.Context, inbox <-chan Message[counterOp, int]) error {
		count := 0
		for message := range inbox {
			switch message.Request {
			case increment:
				count++
			case read:
				message.Reply(count)
			}
		}
		*total = count
		return nil
	}
}

func TestPostThenRequest(t *testing.T) {
	var total int
	w := Start(context.Background(), counter(&total), Options{Name: "counter"})
	ctx := context.Background()

	for range 3 {
		if err := w.Post(ctx, increment); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	count, err := w.Request(ctx, read)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCloseDrainsQueuedMessages(t *testing.T) {
	var total int
	w := Start(context.Background(), counter(&total), Options{Capacity: 200})
	for range 100 {
		if err := w.Post(context.Background(), increment); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if total != 100 {
		t.Errorf("total = %d, want 100", total)
	}
	testutil.RequireClosed(t, w.Done(), 5*time.Second, "worker done")
}

func TestConcurrentRequests(t *testing.T) {
	var total int
	w := Start(context.Background(), counter(&total), Options{Capacity: 4})

	var group sync.WaitGroup
	for range 10 {
		group.Go(func() {
			for range 100 {
				if err := w.Post(context.Background(), increment); err != nil {
					t.Errorf("Post: %v", err)
					return
				}
				if _, err := w.Request(context.Background(), read); err != nil {
					t.Errorf("Request: %v", err)
					return
				}
			}
		})
	}
	group.Wait()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if total != 1000 {
		t.Errorf("total = %d, want 1000", total)
	}
}

func TestSendAfterClose(t *testing.T) {
	var total int
	w := Start(context.Background(), counter(&total), Options{})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Post(context.Background(), increment); !errors.Is(err, ErrClosed) {
		t.Errorf("Post after Close = %v, want ErrClosed", err)
	}
	if _, err := w.Request(context.Background(), read); !errors.Is(err, ErrClosed) {
		t.Errorf("Request after Close = %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestLoopErrorReturnedByClose(t *testing.T) {
	failure := errors.New("loop failed")
	w := Start(context.Background(), func(ctx context.Context, inbox <-chan Message[string, string]) error {
		for message := range inbox {
			if message.Request == "fail" {
				message.Reply("failing")
				return failure
			}
			message.Reply(message.Request)
		}
		return nil
	}, Options{Name: "fragile"})
	ctx := context.Background()

	if got, err := w.Request(ctx, "echo"); err != nil || got != "echo" {
		t.Fatalf("Request(echo) = %q, %v", got, err)
	}
	if got, err := w.Request(ctx, "fail"); err != nil || got != "failing" {
		t.Fatalf("Request(fail) = %q, %v", got, err)
	}

	testutil.RequireClosed(t, w.Done(), 5*time.Second, "loop returning on its own")
	if _, err := w.Request(ctx, "echo"); !errors.Is(err, ErrClosed) {
		t.Errorf("Request after loop exit = %v, want ErrClosed", err)
	}
	if err := w.Close(); !errors.Is(err, failure) {
		t.Errorf("Close = %v, want %v", err, failure)
	}
	if err := w.Close(); !errors.Is(err, failure) {
		t.Errorf("second Close = %v, want %v", err, failure)
	}
}

func TestRequestWithoutReply(t *testing.T) {
	// A loop that drops a request and exits must not leave the
	// requester hanging.
	w := Start(context.Background(), func(ctx context.Context, inbox <-chan Message[int, int]) error {
		<-inbox
		return nil
	}, Options{})

	result := make(chan error, 1)
	go func() {
		_, err := w.Request(context.Background(), 1)
		result <- err
	}()
	if err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Request"); !errors.Is(err, ErrClosed) {
		t.Errorf("Request = %v, want ErrClosed", err)
	}
	w.Close()
}

func TestRequestContextCancelled(t *testing.T) {
	release := make(chan struct{})
	w := Start(context.Background(), func(ctx context.Context, inbox <-chan Message[int, int]) error {
		for message := range inbox {
			<-release
			message.Reply(message.Request)
		}
		return nil
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Request(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Request with cancelled context = %v, want context.Canceled", err)
	}

	close(release)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestReplyIgnoredForPost(t *testing.T) {
	replied := make(chan bool, 1)
	w := Start(context.Background(), func(ctx context.Context, inbox <-chan Message[int, int]) error {
		for message := range inbox {
			expects := message.Expects()
			message.Reply(1)
			message.Reply(2)
			replied <- expects
		}
		return nil
	}, Options{})

	if err := w.Post(context.Background(), 0); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if testutil.RequireReceive(t, replied, 5*time.Second, "posted message handled") {
		t.Error("posted message should not expect a reply")
	}
	got, err := w.Request(context.Background(), 0)
	if err != nil || got != 1 {
		t.Errorf("Request = %d, %v, want the first reply", got, err)
	}
	if !testutil.RequireReceive(t, replied, 5*time.Second, "requested message handled") {
		t.Error("requested message should expect a reply")
	}
	w.Close()
}

func TestPostBlocksWhileInboxFull(t *testing.T) {
	release := make(chan struct{})
	handled := make(chan int, 2)
	w := Start(context.Background(), func(ctx context.Context, inbox <-chan Message[int, int]) error {
		for message := range inbox {
			<-release
			handled <- message.Request
		}
		return nil
	}, Options{Capacity: 1})

	// The loop holds 1 while 2 fills the inbox.
	for i := 1; i <= 2; i++ {
		if err := w.Post(context.Background(), i); err != nil {
			t.Fatalf("Post(%d): %v", i, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Post(ctx, 3); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Post to full inbox = %v, want context.DeadlineExceeded", err)
	}

	for i := 1; i <= 2; i++ {
		testutil.RequireSend(t, release, struct{}{}, 5*time.Second, "releasing message %d", i)
		if got := testutil.RequireReceive(t, handled, 5*time.Second, "message %d handled", i); got != i {
			t.Errorf("handled %d, want %d", got, i)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
