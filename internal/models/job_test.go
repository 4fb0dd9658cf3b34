package models

import (
	"testing"
	"time"
)

func TestJob_Lifecycle(t *testing.T) {
	store := NewJobStore()
	job := store.Create("discover")
	if job.ID == "" || job.Status != "running" {
		t.Fatalf("Create() = (%q, %q), want id and running", job.ID, job.Status)
	}

	job.AppendLog("one")
	job.AppendLog("two")
	if got := job.LogsSince(1); len(got) != 1 || got[0] != "two" {
		t.Errorf("LogsSince(1) = %v, want [two]", got)
	}
	if got := job.LogsSince(5); got != nil {
		t.Errorf("LogsSince(5) = %v, want nil", got)
	}

	job.Complete()
	if job.Status != "completed" || job.FinishedAt == nil {
		t.Errorf("Complete() left status %q", job.Status)
	}
	// A finished job keeps its first terminal status.
	job.Fail("late")
	if job.Status != "completed" || job.Error != "" {
		t.Errorf("Fail after Complete changed status to %q (%q)", job.Status, job.Error)
	}
}

func TestJob_Cancel(t *testing.T) {
	store := NewJobStore()
	job := store.Create("migrate-sequential")
	job.Cancel()

	select {
	case <-job.Context().Done():
	default:
		t.Fatal("Cancel did not cancel the job context")
	}
	if !job.Done() || job.CurrentStatus() != "cancelled" {
		t.Errorf("status = %q, want cancelled", job.CurrentStatus())
	}
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	store := NewJobStore()
	first := store.Create("a")
	second := store.Create("b")
	first.StartedAt = time.Now().Add(-time.Minute)

	list := store.List()
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("List() order wrong: %v", list)
	}
	if store.Get(first.ID) != first {
		t.Error("Get returned a different job")
	}
}

func TestJob_SnapshotIsACopy(t *testing.T) {
	store := NewJobStore()
	job := store.Create("discover")
	job.AppendLog("one")

	view := job.Snapshot()
	job.AppendLog("two")
	job.Fail("boom")

	if view.Status != "running" || len(view.Output) != 1 || view.FinishedAt != nil {
		t.Errorf("Snapshot() changed after the job did: %+v", view)
	}
	after := job.Snapshot()
	if after.Status != "failed" || after.Error != "boom" || len(after.Output) != 2 {
		t.Errorf("Snapshot() = %+v, want failed with 2 lines", after)
	}
	if job.ErrorMessage() != "boom" {
		t.Errorf("ErrorMessage() = %q, want boom", job.ErrorMessage())
	}
}
