package mirror

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestSummarizeCounts(t *testing.T) {
	r := &RunReport{}
	r.Append(Record{Action: Action{Kind: ActionCreateFolder, Path: "sub"}})
	r.Append(Record{Action: Action{Kind: ActionCreateFile, Path: "sub/a.txt"}})
	r.Append(Record{Action: Action{Kind: ActionUpdateFile, Path: "b.txt"}})
	r.Append(Record{Action: Action{Kind: ActionSkip, Path: "c.txt", Reason: SkipUnchanged}})
	r.Append(Record{
		Action:  Action{Kind: ActionCreateFile, Path: "d.txt"},
		Outcome: Outcome{Err: errors.New("quota exceeded")},
	})

	s := r.Summarize()
	if s.Created != 2 || s.Updated != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestSummarizeErrorTrumpsKind(t *testing.T) {
	r := &RunReport{}
	r.Append(Record{
		Action:  Action{Kind: ActionUpdateFile, Path: "a.txt"},
		Outcome: Outcome{Err: errors.New("boom")},
	})

	s := r.Summarize()
	if s.Failed != 1 || s.Updated != 0 {
		t.Errorf("summary = %+v, error should count as failed, not updated", s)
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	r := &RunReport{}
	r.Append(Record{Action: Action{Kind: ActionSkip, Path: "a"}})

	recs := r.Records()
	recs[0].Action.Path = "mutated"

	if r.Records()[0].Action.Path != "a" {
		t.Error("Records exposed internal state")
	}
}

func TestAppendConcurrent(t *testing.T) {
	r := &RunReport{}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Append(Record{Action: Action{Kind: ActionCreateFile, Path: fmt.Sprintf("f%d", i)}})
		}(i)
	}
	wg.Wait()

	if r.Len() != 32 {
		t.Errorf("Len = %d, want 32", r.Len())
	}
	if s := r.Summarize(); s.Created != 32 {
		t.Errorf("summary = %+v", s)
	}
}
