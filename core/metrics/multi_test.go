package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordDispatch(DispatchRecord) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordMonitor(MonitorRecord) error {
	r.count++
	return nil
}

// dispatchOnly does not implement the optional recorders.
type dispatchOnly struct{ count int }

func (d *dispatchOnly) RecordDispatch(DispatchRecord) error {
	d.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	d := &dispatchOnly{}
	m := NewMultiSink(s1, s2, d)
	if err := m.RecordDispatch(DispatchRecord{}); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}
	if err := m.RecordMonitor(MonitorRecord{}); err != nil {
		t.Fatalf("record monitor: %v", err)
	}
	if s1.count != 2 || s2.count != 2 || d.count != 1 {
		t.Fatalf("records not forwarded: %d %d %d", s1.count, s2.count, d.count)
	}
}

func TestMultiSinkContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordDispatch(DispatchRecord{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.count != 1 {
		t.Fatalf("second sink skipped")
	}
}
