package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RecorderStateEvent, 1)

	unsub := bus.Subscribe(func(e RecorderStateEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(RecorderStateEvent{State: StateRecording, At: time.Now()})

	got := <-received
	if got.State != StateRecording {
		t.Errorf("Expected state %s, got %s", StateRecording, got.State)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan TapeFinishedEvent, 1)

	unsub := bus.Subscribe(func(e TapeFinishedEvent) {
		received <- e
	})

	bus.Publish(TapeFinishedEvent{Name: "first"})
	<-received

	unsub()

	bus.Publish(TapeFinishedEvent{Name: "second"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	stateReceived := make(chan bool, 1)
	errorReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ RecorderStateEvent) { stateReceived <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ AudioErrorEvent) { errorReceived <- true })
	defer unsub2()

	bus.Publish(AudioErrorEvent{Op: "record", Error: "audio worker: stopped"})
	<-errorReceived

	select {
	case <-stateReceived:
		t.Fatal("State subscriber should NOT have received AudioErrorEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("Expected a no-op unsubscribe function")
	}
	unsub()
}

func TestBus_ConcurrentPublishers(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	publishers := 10
	perPublisher := 50
	expected := publishers * perPublisher

	receivedCh := make(chan struct{}, expected)
	unsub := bus.Subscribe(func(_ RecorderStateEvent) { receivedCh <- struct{}{} })
	defer unsub()

	for range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perPublisher {
				bus.Publish(RecorderStateEvent{State: StateIdle})
			}
		}()
	}
	wg.Wait()

	for range expected {
		<-receivedCh
	}
}
