package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch, cancel := bus.Subscribe(1)
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestBusSlowSubscriberKeepsLatest(t *testing.T) {
	bus := New[int]()
	ch, cancel := bus.Subscribe(2)
	defer cancel()
	for i := 1; i <= 5; i++ {
		bus.Publish(i)
	}
	if got := []int{<-ch, <-ch}; got[0] != 4 || got[1] != 5 {
		t.Fatalf("expected [4 5] got %v", got)
	}
	if d := bus.Dropped(); d != 3 {
		t.Fatalf("expected 3 dropped got %d", d)
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int]()
	ch1, _ := bus.Subscribe(1)
	ch2, _ := bus.Subscribe(1)
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	ch3, _ := bus.Subscribe(1)
	if _, ok := <-ch3; ok {
		t.Fatalf("expected subscription after close to be closed")
	}
	bus.Publish(1)
}

func TestBusCancelAfterClose(t *testing.T) {
	bus := New[float64]()
	_, cancel := bus.Subscribe(1)
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on cancel after Close: %v", r)
		}
	}()
	cancel()
}
