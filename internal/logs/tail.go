package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines from path. A negative Offset selects the last Limit
// lines; a non-negative Offset resumes reading there. When Follow is set and
// nothing is available, Tail polls for up to Wait before returning. A missing
// file is not an error; the result carries offset zero so a later call starts
// from the beginning.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Offset = 0
		return result, nil
	case err != nil:
		return result, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	wait := opts.Wait
	if wait < 0 {
		wait = 0
	}

	switch {
	case opts.Offset < 0 && opts.Limit <= 0:
		result.Lines = nil
		result.Offset = info.Size()
	case opts.Offset < 0:
		result.Lines, result.Offset, err = lastLines(path, opts.Limit)
	default:
		start := opts.Offset
		if start > info.Size() {
			// The file shrank since the last read; pick up at the new end.
			start = info.Size()
		}
		result.Lines, result.Offset, err = scanFrom(path, start)
	}
	if err != nil {
		return TailResult{Offset: opts.Offset}, err
	}

	if opts.Follow && wait > 0 && len(result.Lines) == 0 {
		return pollForLines(ctx, path, result.Offset, wait)
	}
	return result, nil
}

// lastLines scans the whole file keeping only the final limit lines, and
// reports the offset where a follow-up read should resume.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	ring := make([]string, limit)
	total := 0
	scanner := newLineScanner(file)
	for scanner.Scan() {
		ring[total%limit] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("locate end of log: %w", err)
	}

	if total <= limit {
		return ring[:total], end, nil
	}
	head := total % limit
	lines := make([]string, 0, limit)
	lines = append(lines, ring[head:]...)
	lines = append(lines, ring[:head]...)
	return lines, end, nil
}

// scanFrom reads every complete line at or after offset.
func scanFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("locate end of log: %w", err)
	}
	return lines, next, nil
}

func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, next, err := scanFrom(path, offset)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
