package broadcast

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestPublishNoSubscribers(t *testing.T) {
	topic := NewTopic()
	assert.Equal(t, topic.Publish([]byte("x")), 0)
}

func TestPublishFanOut(t *testing.T) {
	topic := NewTopic()
	sub1 := topic.Subscribe()
	sub2 := topic.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	n := topic.Publish([]byte("Jerry"))
	assert.Equal(t, n, 2)

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case msg := <-sub.C():
			assert.Equal(t, msg.Lagged, false)
			assert.Equal(t, string(msg.Payload), "Jerry")
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	topic := NewTopic()
	sub := topic.Subscribe()
	sub.Close()

	assert.Equal(t, topic.Publish([]byte("x")), 0)
}

func TestLagSignalsWithoutDisconnect(t *testing.T) {
	topic := NewTopic()
	sub := topic.Subscribe()
	defer sub.Close()

	for i := 0; i < Capacity+5; i++ {
		topic.Publish([]byte("m"))
	}

	sawLag := false
	drained := 0
	for {
		select {
		case msg := <-sub.C():
			drained++
			if msg.Lagged {
				sawLag = true
			}
		default:
			goto done
		}
	}
done:
	assert.Equal(t, sawLag, true)
	assert.Equal(t, drained > 0, true)

	assert.Equal(t, topic.Publish([]byte("after-lag")), 1)
	select {
	case msg := <-sub.C():
		assert.Equal(t, string(msg.Payload), "after-lag")
	case <-time.After(time.Second):
		t.Fatal("subscription should still receive after lag")
	}
}

func TestTopicClose(t *testing.T) {
	topic := NewTopic()
	sub := topic.Subscribe()

	topic.Close()

	_, ok := <-sub.C()
	assert.Equal(t, ok, false)
	assert.Equal(t, topic.Publish([]byte("x")), 0)
}
