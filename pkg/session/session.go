// Package session derives the session key once at startup. Core packages
// receive the key as an opaque value and never inspect the process tree.
package session

import (
	"os"
	"time"

	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// New builds a key from the parent process id and the clock's current second.
// Two sessions started by the same parent within one second share a key.
func New(ppid int, clock Clock) transcript.SessionKey {
	if clock == nil {
		clock = SystemClock{}
	}
	return transcript.SessionKey{
		ParentPID: ppid,
		StartUnix: clock.Now().Unix(),
	}
}

// FromProcess keys the session to the terminal that launched this process.
func FromProcess() transcript.SessionKey {
	return New(os.Getppid(), SystemClock{})
}
