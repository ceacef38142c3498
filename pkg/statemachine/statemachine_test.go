package statemachine

import (
	"testing"
)

type counter struct {
	value int
	limit int
}

func countUp(c *counter, cb Callback) StateFn[counter] {
	if cb != nil {
		cb("COUNTING", StateEntered)
	}
	c.value++
	if c.value >= c.limit {
		return countDone
	}
	return countUp
}

func countDone(c *counter, cb Callback) StateFn[counter] {
	if cb != nil {
		cb("DONE", StateEntered)
	}
	return nil
}

func TestStepRunsToTermination(t *testing.T) {
	c := &counter{limit: 3}
	sm := NewStateMachine(c, countUp)

	steps := 0
	for sm.Step() {
		steps++
		if steps > 10 {
			t.Fatal("machine did not terminate")
		}
	}

	if c.value != 3 {
		t.Errorf("value = %d, want 3", c.value)
	}
	if sm.Current() != nil {
		t.Error("terminated machine still has a state")
	}
	if sm.Step() {
		t.Error("Step on terminated machine reported live")
	}
}

func TestCallbackObservesStates(t *testing.T) {
	c := &counter{limit: 2}
	sm := NewStateMachine(c, countUp)

	var seen []string
	sm.SetCallback(func(name string, ev StateEvent) {
		if ev == StateEntered {
			seen = append(seen, name)
		}
	})

	for sm.Step() {
	}

	want := []string{"COUNTING", "COUNTING", "DONE"}
	if len(seen) != len(want) {
		t.Fatalf("saw %d states, want %d: %v", len(seen), len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestDispatchJumpsAndExecutes(t *testing.T) {
	c := &counter{limit: 100}
	sm := NewStateMachine(c, countUp)

	sm.Dispatch(countDone)
	if sm.Current() != nil {
		t.Error("Dispatch to terminal state did not terminate")
	}
	if c.value != 0 {
		t.Errorf("value = %d, want 0", c.value)
	}
}

func TestSetStateDoesNotExecute(t *testing.T) {
	c := &counter{limit: 1}
	sm := NewStateMachine(c, countDone)

	sm.SetState(countUp)
	if c.value != 0 {
		t.Errorf("SetState executed the state: value = %d", c.value)
	}
	sm.Step()
	if c.value != 1 {
		t.Errorf("Step after SetState did not run the new state: value = %d", c.value)
	}
}
