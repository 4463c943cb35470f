package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cuemby/resource-status/pkg/log"
	"github.com/cuemby/resource-status/pkg/types"
)

// DefaultCrmMonCommand asks pacemaker for the full status, inactive resources included
var DefaultCrmMonCommand = []string{"crm_mon", "--one-shot", "--inactive", "--output-as=xml"}

// DefaultTimeout bounds a crm_mon run
const DefaultTimeout = 30 * time.Second

// Source produces the status snapshot a query runs against
type Source interface {
	Snapshot(ctx context.Context) (*types.Snapshot, error)
}

// Parse detects the document format and converts it into a snapshot
func Parse(data []byte) (*types.Snapshot, error) {
	if looksLikeXML(data) {
		return ParseCrmMonXML(bytes.NewReader(data))
	}
	return ParseYAML(data)
}

// FileSource reads a cached crm_mon XML or YAML status document
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading the given file
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Snapshot reads and parses the file
func (s *FileSource) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	snapshot, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return snapshot, nil
}

// CrmMonSource runs crm_mon on the local node and parses its XML output
type CrmMonSource struct {
	// Command is the crm_mon invocation (default: DefaultCrmMonCommand)
	Command []string

	// Timeout is the command execution timeout (default: 30 seconds)
	Timeout time.Duration
}

// NewCrmMonSource creates a source with the default command and timeout
func NewCrmMonSource() *CrmMonSource {
	return &CrmMonSource{
		Command: DefaultCrmMonCommand,
		Timeout: DefaultTimeout,
	}
}

// WithCommand overrides the crm_mon invocation
func (s *CrmMonSource) WithCommand(command []string) *CrmMonSource {
	s.Command = command
	return s
}

// WithTimeout sets the execution timeout
func (s *CrmMonSource) WithTimeout(timeout time.Duration) *CrmMonSource {
	s.Timeout = timeout
	return s
}

// Snapshot runs crm_mon and parses its output
func (s *CrmMonSource) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("no crm_mon command specified")
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := log.WithComponent("snapshot")
	logger.Debug().Strs("command", s.Command).Dur("timeout", timeout).Msg("Running crm_mon")

	cmd := exec.CommandContext(execCtx, s.Command[0], s.Command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("crm_mon timed out after %s", timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("failed to run crm_mon: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("failed to run crm_mon: %w", err)
	}

	snapshot, err := ParseCrmMonXML(&stdout)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("resources", len(snapshot.Resources)).Int("nodes", len(snapshot.Nodes)).Msg("Status loaded")
	return snapshot, nil
}
