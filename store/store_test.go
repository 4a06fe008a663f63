package store

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"

	"github.com/coregx/miniredis/metrics"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	collector := metrics.New(prometheus.NewRegistry())
	log := logrus.New().WithField("test", t.Name())
	s := New(log, collector)
	t.Cleanup(s.Close)
	return s
}

func TestGetSetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Get("hello")
	assert.Equal(t, ok, false)

	s.Set("hello", []byte("world"), nil)
	v, ok := s.Get("hello")
	assert.Equal(t, ok, true)
	assert.Equal(t, string(v), "world")
}

func TestSetReplacesPriorEntry(t *testing.T) {
	s := newTestStore(t)

	s.Set("hello", []byte("world"), nil)
	s.Set("hello", []byte("mundo"), nil)

	v, ok := s.Get("hello")
	assert.Equal(t, ok, true)
	assert.Equal(t, string(v), "mundo")
}

func TestExpiration(t *testing.T) {
	s := newTestStore(t)

	d := 20 * time.Millisecond
	s.Set("hello", []byte("world"), &d)

	v, ok := s.Get("hello")
	assert.Equal(t, ok, true)
	assert.Equal(t, string(v), "world")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.Get("hello"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("key did not expire in time")
}

func TestPublishSubscribe(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, s.Publish("hello", []byte("x")), 0)

	sub1 := s.Subscribe("hello")
	defer s.Unsubscribe("hello", sub1)
	sub2 := s.Subscribe("hello")
	defer s.Unsubscribe("hello", sub2)
	sub2b := s.Subscribe("foo")
	defer s.Unsubscribe("foo", sub2b)

	n := s.Publish("hello", []byte("Jerry"))
	assert.Equal(t, n, 2)

	select {
	case msg := <-sub1.C():
		assert.Equal(t, string(msg.Payload), "Jerry")
	case <-time.After(time.Second):
		t.Fatal("sub1 did not receive message")
	}
	select {
	case msg := <-sub2.C():
		assert.Equal(t, string(msg.Payload), "Jerry")
	case <-time.After(time.Second):
		t.Fatal("sub2 did not receive message")
	}

	n = s.Publish("foo", []byte("only-sub2b"))
	assert.Equal(t, n, 1)
	select {
	case msg := <-sub2b.C():
		assert.Equal(t, string(msg.Payload), "only-sub2b")
	case <-time.After(time.Second):
		t.Fatal("sub2b did not receive message")
	}
}
