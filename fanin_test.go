package box

import (
	"bytes"
	"io/ioutil"
	"testing"
)

func TestFanInConcatenatesAndNotifies(t *testing.T) {
	var began, ended []int
	sources := []Source{
		bytes.NewReader([]byte("foo")),
		bytes.NewReader([]byte("bar")),
		bytes.NewReader([]byte("baz")),
	}
	onBegin := []func(){
		func() { began = append(began, 0) },
		func() { began = append(began, 1) },
		func() { began = append(began, 2) },
	}
	onEnd := []func(){
		func() { ended = append(ended, 0) },
		func() { ended = append(ended, 1) },
		func() { ended = append(ended, 2) },
	}
	fi := NewFanIn(sources, onBegin, onEnd)
	got, err := ioutil.ReadAll(fi)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "foobarbaz" {
		t.Fatalf("expected foobarbaz, got %q", got)
	}
	if len(began) != 3 || began[0] != 0 || began[1] != 1 || began[2] != 2 {
		t.Fatalf("expected onBegin called in order 0,1,2, got %v", began)
	}
	if len(ended) != 3 || ended[0] != 0 || ended[1] != 1 || ended[2] != 2 {
		t.Fatalf("expected onEnd called in order 0,1,2, got %v", ended)
	}
}

func TestFanInBeginsBeforeFirstRead(t *testing.T) {
	var events []string
	sources := []Source{
		bytes.NewReader([]byte("a")),
		bytes.NewReader([]byte("b")),
	}
	onBegin := []func(){
		func() { events = append(events, "begin0") },
		func() { events = append(events, "begin1") },
	}
	onEnd := []func(){
		func() { events = append(events, "end0") },
		func() { events = append(events, "end1") },
	}
	fi := NewFanIn(sources, onBegin, onEnd)
	if _, err := ioutil.ReadAll(fi); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"begin0", "end0", "begin1", "end1"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestFanInEmpty(t *testing.T) {
	fi := NewFanIn(nil, nil, nil)
	got, err := ioutil.ReadAll(fi)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no bytes from empty fan-in, got %d", len(got))
	}
}

func TestFanInSkipsEmptyChildren(t *testing.T) {
	sources := []Source{
		bytes.NewReader(nil),
		bytes.NewReader([]byte("x")),
	}
	fi := NewFanIn(sources, nil, nil)
	got, err := ioutil.ReadAll(fi)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "x" {
		t.Fatalf("expected x, got %q", got)
	}
}
