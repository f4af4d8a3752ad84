package session

import (
	"context"
	"regexp"
	"testing"
	"time"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCreateAndLookup(t *testing.T) {
	store := NewStore(time.Hour)

	student := store.Create(RoleStudent)
	professor := store.Create(RoleProfessor)

	if !tokenPattern.MatchString(student) {
		t.Fatalf("token %q is not 64 hex characters", student)
	}
	if student == professor {
		t.Fatal("two sessions got the same token")
	}

	role, ok := store.Lookup(student)
	if !ok || role != RoleStudent {
		t.Fatalf("Lookup(student) = %q, %v", role, ok)
	}
	role, ok = store.Lookup(professor)
	if !ok || role != RoleProfessor {
		t.Fatalf("Lookup(professor) = %q, %v", role, ok)
	}
}

func TestLookupUnknownTokens(t *testing.T) {
	store := NewStore(time.Hour)
	store.Create(RoleStudent)

	for _, token := range []string{"", "nope", "deadbeef"} {
		if store.IsValid(token) {
			t.Errorf("IsValid(%q) = true, want false", token)
		}
	}
}

func TestExpiryWithoutSweep(t *testing.T) {
	// A negative TTL means every session is born expired. Validity must
	// be checked lazily, independent of sweep timing.
	store := NewStore(-time.Minute)
	token := store.Create(RoleStudent)

	if store.IsValid(token) {
		t.Fatal("expired session reported valid")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry not lazily evicted, Len = %d", store.Len())
	}
}

func TestRoleOfFallback(t *testing.T) {
	store := NewStore(time.Hour)

	if role := store.RoleOf("unknown"); role != RoleStudent {
		t.Fatalf("RoleOf(unknown) = %q, want student", role)
	}

	token := store.Create(RoleProfessor)
	if role := store.RoleOf(token); role != RoleProfessor {
		t.Fatalf("RoleOf(valid professor) = %q", role)
	}
}

func TestDelete(t *testing.T) {
	store := NewStore(time.Hour)
	token := store.Create(RoleStudent)

	store.Delete(token)
	if store.IsValid(token) {
		t.Fatal("deleted session still valid")
	}

	// Deleting again is a no-op.
	store.Delete(token)
}

func TestSweep(t *testing.T) {
	store := NewStore(time.Hour)
	a := store.Create(RoleStudent)
	b := store.Create(RoleProfessor)

	if removed := store.Sweep(time.Now()); removed != 0 {
		t.Fatalf("Sweep removed %d live sessions", removed)
	}

	if removed := store.Sweep(time.Now().Add(2 * time.Hour)); removed != 2 {
		t.Fatalf("Sweep removed %d, want 2", removed)
	}
	if store.IsValid(a) || store.IsValid(b) {
		t.Fatal("swept sessions still valid")
	}
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	store := NewStore(-time.Minute)
	store.Create(RoleStudent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for store.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("background sweep never evicted the expired session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
