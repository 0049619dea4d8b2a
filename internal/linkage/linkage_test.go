package linkage

import (
	"testing"
	"time"

	"roster-reconciliation-service/internal/models"
)

func testDOB() time.Time {
	return time.Date(2010, 4, 2, 0, 0, 0, 0, time.UTC)
}

func createTestPerson(id, name string, dob time.Time) *models.PersonRecord {
	return &models.PersonRecord{
		PersonID:    id,
		Name:        name,
		DateOfBirth: dob,
		EnteredCare: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func createTestEvent(name string, dob time.Time) *models.EventRecord {
	return &models.EventRecord{
		MatchName:   name,
		DateOfBirth: dob,
		LastContact: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusActive,
	}
}

func TestJoinMatchesNormalizedNames(t *testing.T) {
	persons := []*models.PersonRecord{
		createTestPerson("1", "SMITHJOHN", testDOB()),
	}
	engine := NewEngine(NewPersonIndex(persons), nil)

	// Same identity submitted with different spacing and case.
	events := []*models.EventRecord{
		createTestEvent("smith john ", testDOB()),
	}

	linked, stats := engine.Join(events)
	if stats.Linked != 1 || stats.Unmatched != 0 {
		t.Fatalf("stats = %+v, want 1 linked, 0 unmatched", stats)
	}
	if !linked[0].Matched() {
		t.Fatal("event should have matched")
	}
	if linked[0].Person.PersonID != "1" {
		t.Errorf("linked to %s, want person 1", linked[0].Person.PersonID)
	}
}

func TestJoinRequiresSameDOB(t *testing.T) {
	persons := []*models.PersonRecord{
		createTestPerson("1", "SMITHJOHN", testDOB()),
	}
	engine := NewEngine(NewPersonIndex(persons), nil)

	otherDOB := time.Date(2011, 4, 2, 0, 0, 0, 0, time.UTC)
	linked, stats := engine.Join([]*models.EventRecord{
		createTestEvent("SMITHJOHN", otherDOB),
	})

	if stats.Unmatched != 1 {
		t.Fatalf("stats = %+v, want 1 unmatched", stats)
	}
	if linked[0].Matched() {
		t.Error("event with different DOB should not match")
	}
}

func TestJoinPreservesUnmatchedEvents(t *testing.T) {
	engine := NewEngine(NewPersonIndex(nil), nil)

	events := []*models.EventRecord{
		createTestEvent("NOBODY", testDOB()),
		createTestEvent("NOONE", testDOB()),
	}

	linked, stats := engine.Join(events)
	if len(linked) != len(events) {
		t.Fatalf("join dropped rows: %d out, %d in", len(linked), len(events))
	}
	if stats.Unmatched != 2 {
		t.Errorf("unmatched = %d, want 2", stats.Unmatched)
	}
}

func TestJoinFanOut(t *testing.T) {
	// Two episodes for the same identity.
	persons := []*models.PersonRecord{
		createTestPerson("1", "SMITHJOHN", testDOB()),
		createTestPerson("1", "SMITHJOHN", testDOB()),
	}
	engine := NewEngine(NewPersonIndex(persons), nil)

	linked, stats := engine.Join([]*models.EventRecord{
		createTestEvent("SMITHJOHN", testDOB()),
	})

	if len(linked) != 2 {
		t.Fatalf("fan-out rows = %d, want 2", len(linked))
	}
	if stats.FanOut != 1 {
		t.Errorf("FanOut = %d, want 1", stats.FanOut)
	}
	if len(linked) < stats.Events {
		t.Error("output must never have fewer rows than input")
	}
}

func TestJoinZeroDOBGroupsTogether(t *testing.T) {
	persons := []*models.PersonRecord{
		createTestPerson("1", "DOEJANE", time.Time{}),
	}
	engine := NewEngine(NewPersonIndex(persons), nil)

	linked, _ := engine.Join([]*models.EventRecord{
		createTestEvent("DOEJANE", time.Time{}),
	})

	if !linked[0].Matched() {
		t.Error("records missing DOB on both sides should still group by name")
	}
}
