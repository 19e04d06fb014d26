package emitter

import "github.com/shopware/vuedoc/internal/entry"

type record struct {
	entry   entry.Entry
	err     error
	warning *Warning
}

// Recorder is a Sink that buffers a walk so it can be replayed, in order,
// into another sink once the walk is done.
type Recorder struct {
	records []record
}

func (r *Recorder) Publish(e entry.Entry) {
	r.records = append(r.records, record{entry: e})
}

func (r *Recorder) Error(err error) {
	r.records = append(r.records, record{err: err})
}

func (r *Recorder) Warn(w Warning) {
	r.records = append(r.records, record{warning: &w})
}

// Len returns the number of buffered records.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Replay forwards the buffered records to sink and empties the recorder.
func (r *Recorder) Replay(sink Sink) {
	for _, rec := range r.records {
		switch {
		case rec.entry != nil:
			sink.Publish(rec.entry)
		case rec.err != nil:
			sink.Error(rec.err)
		case rec.warning != nil:
			sink.Warn(*rec.warning)
		}
	}
	r.records = nil
}

// Entries returns the buffered entries in publication order.
func (r *Recorder) Entries() []entry.Entry {
	var out []entry.Entry
	for _, rec := range r.records {
		if rec.entry != nil {
			out = append(out, rec.entry)
		}
	}
	return out
}
