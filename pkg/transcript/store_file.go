package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
)

const chatlogFile = "chatlog.json"

// fileStore keeps each transcript at <root>/<ppid>/<start>/chatlog.json.
type fileStore struct {
	root    string
	logger  loggerpkg.Logger
	verbose bool
}

// Path returns the chatlog location for key.
func (s *fileStore) Path(key SessionKey) string {
	parts := append([]string{s.root}, key.segments()...)
	return filepath.Join(append(parts, chatlogFile)...)
}

func (s *fileStore) Load(ctx context.Context, key SessionKey) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.Storage("create session dir", err)
	}
	return s.read(path)
}

func (s *fileStore) read(path string) (Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Transcript{}, nil
		}
		return nil, apperr.Storage("read "+path, err)
	}
	return decode(b, path)
}

func (s *fileStore) Append(ctx context.Context, key SessionKey, user, assistant Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(key)
	current, err := s.read(path)
	if err != nil {
		return err
	}
	updated := append(current.Clone(), user, assistant)

	b, err := encode(updated)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, b, 0o644); err != nil {
		return apperr.Storage("write "+path, err)
	}
	loggerpkg.Debug(s.verbose, s.logger, "transcript written", map[string]any{
		"path":  path,
		"turns": len(updated),
	})
	return nil
}

func (s *fileStore) Close() error { return nil }

// writeFileAtomic replaces path via a temp file and rename, so a crash never
// leaves a half-written chatlog.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write temp file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
