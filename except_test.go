package mologs

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestWrapNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("wrapping nil should stay nil")
	}
}

func TestWrapIdentity(t *testing.T) {
	original := &Except{Severity: ERROR, Template: "boom", Timestamp: utcNow()}
	if Wrap(original) != original {
		t.Error("an Except should pass through Wrap unchanged")
	}
}

func TestWrapForeignError(t *testing.T) {
	e := Wrap(stderrors.New("disk full"))
	if e.Template != "disk full" {
		t.Errorf("template = %q, want %q", e.Template, "disk full")
	}
	if e.Severity != ERROR {
		t.Errorf("severity = %q, want %q", e.Severity, ERROR)
	}
	if len(e.Trace) == 0 {
		t.Error("expected a trace captured at the wrap site")
	}
	if e.Trace[0].Method != "TestWrapForeignError" {
		t.Errorf("trace starts at %q, want the wrap site", e.Trace[0].Method)
	}
}

func TestWrapHarvestsLibraryStack(t *testing.T) {
	e := Wrap(pkgerrors.New("boom"))
	if len(e.Trace) == 0 {
		t.Fatal("expected the error's own stack to be harvested")
	}
	if e.Trace[0].Method != "TestWrapHarvestsLibraryStack" {
		t.Errorf("trace starts at %q, want the construction site", e.Trace[0].Method)
	}
	if e.Trace[0].Line == 0 || e.Trace[0].File == "" {
		t.Errorf("incomplete frame: %+v", e.Trace[0])
	}
}

func TestWrapUnwrapsCauseChain(t *testing.T) {
	inner := stderrors.New("root cause")
	outer := fmt.Errorf("while reading: %w", inner)

	e := Wrap(outer)
	if e.Template != "while reading: root cause" {
		t.Errorf("template = %q", e.Template)
	}
	if len(e.Cause) != 1 {
		t.Fatalf("expected one cause, got %d", len(e.Cause))
	}
	if e.Cause[0].Template != "root cause" {
		t.Errorf("cause template = %q", e.Cause[0].Template)
	}
}

func TestWrapJoinedErrors(t *testing.T) {
	joined := stderrors.Join(stderrors.New("first"), stderrors.New("second"))
	e := Wrap(fmt.Errorf("both failed: %w", joined))
	if len(e.Cause) != 1 {
		t.Fatalf("expected the joined node as one cause, got %d", len(e.Cause))
	}
	causes := e.Cause[0].Cause
	if len(causes) != 2 {
		t.Fatalf("expected two leaf causes, got %d", len(causes))
	}
	if causes[0].Template != "first" || causes[1].Template != "second" {
		t.Errorf("leaf causes = %q, %q", causes[0].Template, causes[1].Template)
	}
}

func TestExceptError(t *testing.T) {
	cause := Wrap(stderrors.New("root"))
	e := &Except{
		Severity:  ERROR,
		Template:  "can not read {{path}}",
		Params:    Params{"path": "a.txt"},
		Trace:     getStacktrace(0),
		Cause:     []*Except{cause},
		Timestamp: utcNow(),
	}

	out := e.Error()
	if !strings.HasPrefix(out, "ERROR: can not read a.txt") {
		t.Errorf("unexpected message start: %q", out)
	}
	if !strings.Contains(out, "\tFile \"") {
		t.Errorf("expected an indented trace in %q", out)
	}
	if !strings.Contains(out, "caused by\n\tERROR: root") {
		t.Errorf("expected the cause chain in %q", out)
	}
	if e.Message() != "can not read a.txt" {
		t.Errorf("Message() = %q", e.Message())
	}
}

func TestExceptErrorsAs(t *testing.T) {
	var err error = &Except{Severity: ERROR, Template: "boom", Timestamp: utcNow()}
	var exc *Except
	if !stderrors.As(err, &exc) {
		t.Fatal("errors.As should find the Except")
	}
	if exc.Template != "boom" {
		t.Errorf("template = %q", exc.Template)
	}
}

func TestExceptErrorsIsThroughCauses(t *testing.T) {
	child := Error("inner failure", nil).(*Except)
	top := Error("outer failure", child).(*Except)

	if !stderrors.Is(top, child) {
		t.Error("errors.Is should reach the cause")
	}
	if len(top.Cause) != 1 || top.Cause[0] != child {
		t.Error("an Except cause should be chained by identity, not re-wrapped")
	}
}

func TestExceptData(t *testing.T) {
	e := Wrap(stderrors.New("boom"))
	data := e.Data()
	if data["severity"] != string(ERROR) {
		t.Errorf("severity = %v", data["severity"])
	}
	trace, ok := data["trace"].([]any)
	if !ok || len(trace) == 0 {
		t.Fatalf("trace = %v", data["trace"])
	}
	frame, ok := trace[0].(Params)
	if !ok || frame["file"] == "" || frame["method"] == "" {
		t.Errorf("frame = %v", trace[0])
	}
}
