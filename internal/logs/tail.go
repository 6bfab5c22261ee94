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

// DefaultPoll is the Follow polling interval when none is given.
const DefaultPoll = 250 * time.Millisecond

// Last returns up to limit trailing lines of path and the offset just past
// the last complete line. A final line still missing its newline is left out
// so Follow can emit it whole. A missing file yields no lines and offset 0.
func Last(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	ring := make([]string, max(limit, 0))
	count, idx := 0, 0
	offset, err := completeLines(file, func(line string) {
		if limit <= 0 {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit && count > 0 {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow polls path from offset and passes each complete new line to emit
// until ctx is done. A file that shrinks is read again from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readFrom returns the complete lines after offset. A trailing partial line
// is left for the next call.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	n, err := completeLines(file, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, offset, err
	}
	return lines, offset + n, nil
}

// completeLines passes each newline-terminated line of r to fn and returns
// the bytes those lines span. A trailing partial line is not consumed.
func completeLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReader(r)
	var n int64
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read log file: %w", err)
		}
		n += int64(len(line))
		fn(trimNewline(line))
	}
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
