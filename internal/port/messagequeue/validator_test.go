package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateContentCopy(t *testing.T) {
	data := []byte(`{"tenant_id":"root","from":"e1","to":"e2"}`)
	if err := Validate(SubjectContentCopy, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateContentCopyMissingTarget(t *testing.T) {
	data := []byte(`{"tenant_id":"root","from":"e1"}`)
	if err := Validate(SubjectContentCopy, data); err == nil {
		t.Fatal("expected error for missing to")
	}
}

func TestValidateContentDelete(t *testing.T) {
	data := []byte(`{"tenant_id":"root","environment_id":"e1"}`)
	if err := Validate(SubjectContentDelete, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(SubjectContentDelete, []byte(`{}`)); err == nil {
		t.Fatal("expected error for missing environment_id")
	}
}

func TestValidateWrongFieldType(t *testing.T) {
	data := []byte(`{"from":1,"to":"e2"}`)
	err := Validate(SubjectContentCopy, data)
	if err == nil {
		t.Fatal("expected error for numeric from")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate(SubjectContentCopy, []byte(`{not valid json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}
