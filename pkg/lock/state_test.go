package lock

import "testing"

func TestDeviceStatusBatteryOK(t *testing.T) {
	d := DeviceStatus{BatteryPercent: BatteryUnknown}
	if d.BatteryOK() {
		t.Fatalf("expected BatteryOK false for sentinel value")
	}
	d.BatteryPercent = 42
	if !d.BatteryOK() {
		t.Fatalf("expected BatteryOK true for real reading")
	}
}

func TestPublisherSubscribeReceivesCurrentValueImmediately(t *testing.T) {
	p := NewPublisher(LockUnknown)
	ch, unsub := p.Subscribe()
	defer unsub()
	select {
	case v := <-ch:
		if v != LockUnknown {
			t.Fatalf("got %v, want LockUnknown", v)
		}
	default:
		t.Fatalf("expected initial value to be immediately available")
	}
}

func TestPublisherPublishFansOutToAllSubscribers(t *testing.T) {
	p := NewPublisher(LockUnknown)
	ch1, unsub1 := p.Subscribe()
	ch2, unsub2 := p.Subscribe()
	defer unsub1()
	defer unsub2()
	<-ch1
	<-ch2

	p.Publish(LockLocked)

	if got := <-ch1; got != LockLocked {
		t.Fatalf("sub1 got %v, want locked", got)
	}
	if got := <-ch2; got != LockLocked {
		t.Fatalf("sub2 got %v, want locked", got)
	}
	if got := p.Current(); got != LockLocked {
		t.Fatalf("Current() = %v, want locked", got)
	}
}

func TestPublisherUnsubscribeStopsDelivery(t *testing.T) {
	p := NewPublisher(LockUnknown)
	ch, unsub := p.Subscribe()
	<-ch
	unsub()
	p.Publish(LockLocked)
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unsubscribed channel still received %v", v)
		}
	default:
	}
}

func TestPublisherDropsStaleValueRatherThanBlocking(t *testing.T) {
	p := NewPublisher(LockUnknown)
	ch, unsub := p.Subscribe()
	defer unsub()
	<-ch // drain initial value, leave channel empty

	p.Publish(LockLocked)
	p.Publish(LockUnlocked)

	got := <-ch
	if got != LockUnlocked {
		t.Fatalf("expected latest value to win, got %v", got)
	}
}
