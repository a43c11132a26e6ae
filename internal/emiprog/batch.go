// Public domain.

package emiprog

import (
	"time"

	"github.com/soniakeys/emi/specimen"
)

type outcome struct {
	rec *specimen.Record
	cl  *specimen.Classification
	err error
}

type recSeq struct {
	rec *specimen.Record
	rch chan outcome
}

// classifyAll classifies recs on up to maxWorkers goroutines and calls
// emit with each outcome in input order.  After emit returns an error the
// remaining outcomes are drained but not emitted, and that error is
// returned.
func classifyAll(c *specimen.Classifier, recs []specimen.Record, maxWorkers int,
	m *Metrics, emit func(outcome) error) error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	// prCh keeps results in submission order.  It is buffered so a fast
	// worker can drop off a result without waiting for workers ahead of
	// it, and must hold at least maxWorkers.
	prCh := make(chan chan outcome, maxWorkers*2)
	recChSeq := make(chan *recSeq)

	// dispatcher.  each record gets a return channel that works like a
	// ticket for picking up its result.  the record goes to the next free
	// worker and the ticket into the queue for emitting.
	go func() {
		for i := range recs {
			rch := make(chan outcome, 1)
			recChSeq <- &recSeq{&recs[i], rch}
			prCh <- rch
		}
		close(recChSeq)
		close(prCh)
	}()

	// workers are started only as the dispatcher calls for them, there may
	// be fewer records than workers.
	go func() {
		for n := 0; n < maxWorkers; n++ {
			r, ok := <-recChSeq
			if !ok {
				return
			}
			go classify(c, r, recChSeq, m)
		}
	}()

	var err error
	for rch := range prCh {
		o := <-rch
		if err == nil {
			err = emit(o)
		}
	}
	return err
}

// worker.  the first record is r, more come on recCh until it closes.
func classify(c *specimen.Classifier, r *recSeq, recCh chan *recSeq, m *Metrics) {
	for ok := true; ok; r, ok = <-recCh {
		start := time.Now()
		cl, err := c.Classify(r.rec)
		if m != nil {
			m.observe(cl, err, time.Since(start))
		}
		r.rch <- outcome{r.rec, cl, err} // buffered
	}
}
