package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
)

func newFileStore(t *testing.T) (*fileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewStore(StoreTypeFile, WithRoot(root))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store.(*fileStore), root
}

// appendPairs writes n turns as n/2 user/assistant pairs.
func appendPairs(t *testing.T, store Store, key SessionKey, n int) Transcript {
	t.Helper()
	var want Transcript
	for i := 0; i < n/2; i++ {
		user := UserTurn(fmt.Sprintf("question %d", i))
		assistant := AssistantTurn(fmt.Sprintf("answer %d", i))
		if err := store.Append(context.Background(), key, user, assistant); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		want = append(want, user, assistant)
	}
	return want
}

func assertTranscript(t *testing.T, got, want Transcript) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, n := range []int{0, 2, 50} {
		t.Run(fmt.Sprintf("turns=%d", n), func(t *testing.T) {
			store, _ := newFileStore(t)
			key := SessionKey{ParentPID: 4242, StartUnix: 1700000000}

			want := appendPairs(t, store, key, n)
			got, err := store.Load(context.Background(), key)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			assertTranscript(t, got, want)
		})
	}
}

func TestFileStoreSingleTurnPreserved(t *testing.T) {
	store, _ := newFileStore(t)
	key := SessionKey{ParentPID: 1, StartUnix: 2}
	path := store.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`[{"role":"system","content":"You are a chatbot."}]`), 0o644); err != nil {
		t.Fatalf("write chatlog: %v", err)
	}

	got, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertTranscript(t, got, Transcript{{Role: RoleSystem, Content: "You are a chatbot."}})
}

func TestFileStoreLayoutAndFormat(t *testing.T) {
	store, root := newFileStore(t)
	key := SessionKey{ParentPID: 77, StartUnix: 1700000123}

	if err := store.Append(context.Background(), key, UserTurn("hi"), AssistantTurn("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	path := filepath.Join(root, "77", "1700000123", "chatlog.json")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chatlog: %v", err)
	}
	want := `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`
	if string(b) != want {
		t.Fatalf("unexpected chatlog:\n got %s\nwant %s", b, want)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err=%v", err)
	}
}

func TestFileStoreLoadCreatesSessionDir(t *testing.T) {
	store, root := newFileStore(t)
	key := SessionKey{ParentPID: 9, StartUnix: 10}

	got, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty transcript, got %d turns", len(got))
	}
	info, err := os.Stat(filepath.Join(root, "9", "10"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected session dir to exist, err=%v", err)
	}
}

func TestFileStoreEmptyFileIsEmptyTranscript(t *testing.T) {
	store, _ := newFileStore(t)
	key := SessionKey{ParentPID: 3, StartUnix: 4}
	path := store.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write chatlog: %v", err)
	}

	got, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty transcript, got %d turns", len(got))
	}
}

func TestFileStoreMalformedIsStorageError(t *testing.T) {
	store, _ := newFileStore(t)
	key := SessionKey{ParentPID: 5, StartUnix: 6}
	path := store.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"role":"user"`), 0o644); err != nil {
		t.Fatalf("write chatlog: %v", err)
	}

	if _, err := store.Load(context.Background(), key); !apperr.IsStorage(err) {
		t.Fatalf("expected storage error from Load, got %v", err)
	}

	err := store.Append(context.Background(), key, UserTurn("a"), AssistantTurn("b"))
	if !apperr.IsStorage(err) {
		t.Fatalf("expected storage error from Append, got %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != `{"role":"user"` {
		t.Fatalf("malformed chatlog must not be overwritten, got %s", b)
	}
}

func TestFileStoreRejectsInvalidTurns(t *testing.T) {
	bodies := []string{
		`[{}]`,
		`[null]`,
		`[{"role":"robot","content":"x"}]`,
		`[{"role":"user","content":"hi"},{"content":"no role"}]`,
	}
	for i, body := range bodies {
		store, _ := newFileStore(t)
		key := SessionKey{ParentPID: 1, StartUnix: int64(i + 2)}
		path := store.Path(key)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write chatlog: %v", err)
		}

		if _, err := store.Load(context.Background(), key); !apperr.IsStorage(err) {
			t.Fatalf("%s: expected storage error from Load, got %v", body, err)
		}
		err := store.Append(context.Background(), key, UserTurn("u"), AssistantTurn("a"))
		if !apperr.IsStorage(err) {
			t.Fatalf("%s: expected storage error from Append, got %v", body, err)
		}
		b, _ := os.ReadFile(path)
		if string(b) != body {
			t.Fatalf("%s: chatlog must not be overwritten, got %s", body, b)
		}
	}
}

func TestFileStoreAppendWriteFailure(t *testing.T) {
	store, root := newFileStore(t)
	key := SessionKey{ParentPID: 9, StartUnix: 10}
	// A regular file where the session directory should be.
	if err := os.WriteFile(filepath.Join(root, "9"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := store.Append(context.Background(), key, UserTurn("u"), AssistantTurn("a"))
	if !apperr.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := store.Load(context.Background(), key); !apperr.IsStorage(err) {
		t.Fatalf("expected storage error from Load, got %v", err)
	}
}

func TestFileStoreSessionsAreIsolated(t *testing.T) {
	store, _ := newFileStore(t)
	a := SessionKey{ParentPID: 100, StartUnix: 1}
	b := SessionKey{ParentPID: 100, StartUnix: 2}

	if err := store.Append(context.Background(), a, UserTurn("a"), AssistantTurn("A")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := store.Load(context.Background(), b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected session b to be empty, got %d turns", len(got))
	}
}
