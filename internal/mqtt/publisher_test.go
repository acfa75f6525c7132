package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	publishErr error
	publishes  []publishCall
	disconnect bool
}

func (c *fakeClient) Connect() pahomqtt.Token {
	return fakeToken{err: c.connectErr}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishes = append(c.publishes, publishCall{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  append([]byte(nil), payload.([]byte)...),
	})
	return fakeToken{err: c.publishErr}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnect = true
}

func (c *fakeClient) calls() []publishCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishCall(nil), c.publishes...)
}

func TestPublish_SendsJSONToTopic(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(Config{Broker: "tcp://127.0.0.1:1883", Topic: "tinygps/fix", Retain: true}, nil, client)

	fix := struct {
		Valid  bool    `json:"valid"`
		LatDeg float64 `json:"lat_deg"`
	}{Valid: true, LatDeg: 30.23664}
	if err := p.Publish(fix); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	calls := client.calls()
	if len(calls) != 1 {
		t.Fatalf("publishes=%d want 1", len(calls))
	}
	if calls[0].topic != "tinygps/fix" {
		t.Fatalf("topic=%q", calls[0].topic)
	}
	if calls[0].qos != 0 {
		t.Fatalf("qos=%d want 0", calls[0].qos)
	}
	if !calls[0].retained {
		t.Fatal("retain flag not carried")
	}

	var got map[string]any
	if err := json.Unmarshal(calls[0].payload, &got); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if got["lat_deg"] != 30.23664 {
		t.Fatalf("lat_deg=%v", got["lat_deg"])
	}
}

func TestPublish_MarshalError(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(Config{Topic: "tinygps/fix"}, nil, client)

	if err := p.Publish(make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if len(client.calls()) != 0 {
		t.Fatal("publish should not reach the client on marshal failure")
	}
}

func TestConnect_PropagatesError(t *testing.T) {
	wantErr := errors.New("broker down")
	p := newPublisher(Config{Broker: "tcp://127.0.0.1:1883"}, nil, &fakeClient{connectErr: wantErr})

	err := p.Connect()
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("Connect() error=%v want wrapped %v", err, wantErr)
	}
}

func TestClose_Disconnects(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(Config{}, nil, client)
	p.Close()
	if !client.disconnect {
		t.Fatal("Disconnect not called")
	}
}

func TestNew_GeneratesClientID(t *testing.T) {
	p := New(Config{Broker: "tcp://127.0.0.1:1883"}, nil)
	if !strings.HasPrefix(p.cfg.ClientID, "tinygpsd-") {
		t.Fatalf("client_id=%q", p.cfg.ClientID)
	}
	if p.cfg.Topic != "tinygps/fix" {
		t.Fatalf("topic=%q", p.cfg.Topic)
	}
}
