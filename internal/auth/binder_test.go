package auth

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAuthorizeBindsOnFirstUse(t *testing.T) {
	binder, dir := newTestBinder(t)

	allowed, err := binder.Authorize("alice", Credential{Present: true, Secret: "secret"})
	if err != nil || !allowed {
		t.Fatalf("first credential should be accepted, allowed=%v err=%v", allowed, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "alice"))
	if err != nil {
		t.Fatalf("expected key file: %v", err)
	}
	if strings.TrimSpace(string(data)) != string(Hash("secret")) {
		t.Fatalf("key file should contain the digest")
	}

	allowed, err = binder.Authorize("alice", Credential{Present: true, Secret: "other"})
	if err != nil || allowed {
		t.Fatalf("different credential should be denied, allowed=%v err=%v", allowed, err)
	}
	allowed, err = binder.Authorize("alice", Credential{Present: true, Secret: "secret"})
	if err != nil || !allowed {
		t.Fatalf("original credential should still be accepted, allowed=%v err=%v", allowed, err)
	}
}

func TestAuthorizeWithoutCredential(t *testing.T) {
	binder, dir := newTestBinder(t)

	allowed, err := binder.Authorize("bob", Credential{})
	if err != nil || !allowed {
		t.Fatalf("unbound identity without credential should be allowed")
	}
	if _, err := os.Stat(filepath.Join(dir, "bob")); !os.IsNotExist(err) {
		t.Fatalf("no binding should be created without a credential")
	}

	_, _ = binder.Authorize("bob", Credential{Present: true, Secret: "pw"})
	allowed, err = binder.Authorize("bob", Credential{})
	if err != nil {
		t.Fatalf("missing credential must not be an error: %v", err)
	}
	if allowed {
		t.Fatalf("bound identity without credential should be denied")
	}
}

func TestEnsureReturnsUnauthorized(t *testing.T) {
	binder, _ := newTestBinder(t)
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("secret"))
	wrong := "Basic " + base64.StdEncoding.EncodeToString([]byte("wrong"))

	if err := binder.Ensure("carol", header); err != nil {
		t.Fatalf("first use should pass: %v", err)
	}
	if err := binder.Ensure("carol", wrong); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := binder.Ensure("carol", "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("malformed header counts as no credential, expected ErrUnauthorized, got %v", err)
	}
}

func TestForgetIsIdempotent(t *testing.T) {
	binder, _ := newTestBinder(t)
	if err := binder.Forget("nobody"); err != nil {
		t.Fatalf("forgetting an unbound identity should succeed: %v", err)
	}

	_, _ = binder.Authorize("dave", Credential{Present: true, Secret: "one"})
	if err := binder.Forget("dave"); err != nil {
		t.Fatalf("forget error: %v", err)
	}
	allowed, _ := binder.Authorize("dave", Credential{Present: true, Secret: "two"})
	if !allowed {
		t.Fatalf("after forget the next credential should bind again")
	}
}

func TestConcurrentFirstWritersBindOnce(t *testing.T) {
	binder, _ := newTestBinder(t)

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			secret := "a"
			if i%2 == 1 {
				secret = "b"
			}
			results[i], _ = binder.Authorize("erin", Credential{Present: true, Secret: secret})
		}(i)
	}
	wg.Wait()

	winners := map[bool]int{}
	for i, ok := range results {
		if ok {
			winners[i%2 == 1]++
		}
	}
	if len(winners) != 1 {
		t.Fatalf("only one credential may win the binding, got %v", winners)
	}
}

func TestFileDigestStoreRejectsSecondBind(t *testing.T) {
	store, err := NewFileDigestStore(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	if err := store.Bind("frank", Hash("x")); err != nil {
		t.Fatalf("bind error: %v", err)
	}
	if err := store.Bind("frank", Hash("y")); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}
	digest, ok, err := store.Load("frank")
	if err != nil || !ok || digest != Hash("x") {
		t.Fatalf("first binding should be kept, got %s ok=%v err=%v", digest, ok, err)
	}
	matches, _ := filepath.Glob(filepath.Join(store.dir, ".key-*"))
	if len(matches) != 0 {
		t.Fatalf("temporary key files should be cleaned up, found %v", matches)
	}
}

func newTestBinder(t *testing.T) (*Binder, string) {
	t.Helper()
	dir := t.TempDir()
	keys, err := NewFileDigestStore(dir)
	if err != nil {
		t.Fatalf("failed to create digest store: %v", err)
	}
	return NewBinder(keys, nil, nil), dir
}
