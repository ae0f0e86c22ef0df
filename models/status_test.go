package models

import "testing"

func TestStatusTransitions(t *testing.T) {
	testCases := []struct {
		from    Status
		allowed []Status
	}{
		{StatusPending, []Status{StatusInProgress, StatusResolved, StatusRejected}},
		{StatusInProgress, []Status{StatusResolved, StatusRejected}},
		{StatusResolved, nil},
		{StatusRejected, nil},
	}

	all := []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

	for _, testCase := range testCases {
		allowed := map[Status]bool{}
		for _, s := range testCase.allowed {
			allowed[s] = true
		}
		for _, next := range all {
			if got := testCase.from.CanTransition(next); got != allowed[next] {
				t.Errorf("CanTransition(%s, %s): expected %v, got %v",
					testCase.from, next, allowed[next], got)
			}
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusInProgress.Terminal() {
		t.Error("pending and in-progress must not be terminal")
	}
	if !StatusResolved.Terminal() || !StatusRejected.Terminal() {
		t.Error("resolved and rejected must be terminal")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("closed").Valid() {
		t.Error("unknown status must not be valid")
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleUser) || !ValidRole(RoleAuthority) {
		t.Error("known roles must validate")
	}
	if ValidRole("admin") {
		t.Error("unknown role must not validate")
	}
}
