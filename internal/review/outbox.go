package review

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Outbox is a file-backed Router. Each submitted review lands as a markdown
// file named after the fix under the outbox directory, where the external
// review system (or a human) picks it up.
type Outbox struct {
	dir    string
	logger *slog.Logger
}

// NewOutbox creates the outbox directory if needed
func NewOutbox(dir string, logger *slog.Logger) (*Outbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("outbox dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create review outbox %s: %w", dir, err)
	}
	return &Outbox{dir: dir, logger: logger}, nil
}

// SubmitForReview writes the review request to <dir>/<fixID>.md.
// Resubmitting the same fix overwrites the previous request.
func (o *Outbox) SubmitForReview(ctx context.Context, fixID, title, body string) error {
	if fixID == "" {
		return fmt.Errorf("fix ID is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(o.dir, sanitizeName(fixID)+".md")
	content := fmt.Sprintf("# %s\n\n%s", title, body)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write review request: %w", err)
	}

	o.logger.Info("submitted fix for human review", "fix_id", fixID, "path", path)
	return nil
}

// sanitizeName keeps the filename to a safe character set
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
