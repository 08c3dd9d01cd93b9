package model

import (
	"encoding/json"
	"testing"
)

func TestApplyOverwritesOnlyPatchedFields(t *testing.T) {
	s := Student{ID: "s1", Name: "Ana", Grade: "5B", RollNumber: "4", Email: "ana@example.com"}
	name := "Ana Maria"
	phone := ""

	got := s.Apply(StudentPatch{ID: "s1", Name: &name, Phone: &phone})
	if got.Name != "Ana Maria" || got.Grade != "5B" || got.RollNumber != "4" || got.Email != "ana@example.com" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if s.Name != "Ana" {
		t.Fatal("Apply must not modify the receiver")
	}
}

func TestPatchMarshalsOnlySetFields(t *testing.T) {
	grade := "6A"
	body, err := json.Marshal(StudentPatch{ID: "s1", Grade: &grade})
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"grade":"6A"}` {
		t.Fatalf("got %s", body)
	}
}

func TestPatchApplyAndEmpty(t *testing.T) {
	name, grade, roll := "Ana", "5B", "4"
	s := Student{ID: "s1", Name: name, Grade: grade, RollNumber: roll}
	p := StudentPatch{ID: "s1", Name: &name, Grade: &grade, RollNumber: &roll}
	if p.Empty() {
		t.Fatal("patch with fields reported empty")
	}
	if got := (Student{ID: "s1"}).Apply(p); got != s {
		t.Fatalf("got %+v, want %+v", got, s)
	}
	if !(StudentPatch{ID: "s1"}).Empty() {
		t.Fatal("patch with no fields should be empty")
	}
}

func TestFieldsOmitID(t *testing.T) {
	body, err := json.Marshal(Student{ID: "s1", Name: "Ana"}.Fields())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(body, &m)
	if _, ok := m["id"]; ok {
		t.Fatalf("stored fields must not carry the id: %s", body)
	}
}
