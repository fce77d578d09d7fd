package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	sourceBufferSize = 64 << 10
	maxReadRetries   = 3
)

// httpSource is an io.ReadSeekCloser over HTTP Range requests.
// Seeks are lazy: the connection is reopened on the next Read.
type httpSource struct {
	ctx     context.Context
	client  *http.Client
	url     string
	size    int64 // -1 if unknown
	pos     int64
	body    io.ReadCloser
	r       *bufio.Reader
	retries int
}

func openHTTPSource(ctx context.Context, client *http.Client, url string) (*httpSource, error) {
	s := &httpSource{ctx: ctx, client: client, url: url, size: -1}
	if err := s.open(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *httpSource) open(offset int64) error {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if size := parseContentRangeSize(resp.Header.Get("Content-Range")); size >= 0 {
			s.size = size
		}
	case http.StatusOK:
		// Server ignored the range: skip to the offset ourselves.
		if resp.ContentLength >= 0 {
			s.size = resp.ContentLength
		}
		if offset > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
				resp.Body.Close()
				return fmt.Errorf("skip to offset: %w", err)
			}
		}
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		s.body = http.NoBody
		s.r = bufio.NewReader(http.NoBody)
		s.pos = offset
		return nil
	default:
		resp.Body.Close()
		return fmt.Errorf("open stream: HTTP %d", resp.StatusCode)
	}

	s.body = resp.Body
	s.r = bufio.NewReaderSize(resp.Body, sourceBufferSize)
	s.pos = offset
	return nil
}

// parseContentRangeSize returns the total from "bytes a-b/total", or -1.
func parseContentRangeSize(v string) int64 {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return -1
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func (s *httpSource) Read(p []byte) (int, error) {
	if s.body == nil {
		if s.size >= 0 && s.pos >= s.size {
			return 0, io.EOF
		}
		if err := s.open(s.pos); err != nil {
			return 0, err
		}
	}

	n, err := s.r.Read(p)
	s.pos += int64(n)
	if err == nil || errors.Is(err, io.EOF) {
		if n > 0 {
			s.retries = 0
		}
		return n, err
	}

	// Dropped connection: reopen at the current offset a few times.
	if s.ctx.Err() != nil || s.retries >= maxReadRetries {
		return n, err
	}
	s.retries++
	s.closeBody()
	if n > 0 {
		return n, nil
	}
	select {
	case <-s.ctx.Done():
		return 0, s.ctx.Err()
	case <-time.After(time.Duration(s.retries) * 250 * time.Millisecond):
	}
	return s.Read(p)
}

func (s *httpSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		if s.size < 0 {
			return 0, errors.New("seek from end: unknown size")
		}
		target = s.size + offset
	default:
		return 0, errors.New("seek: invalid whence")
	}
	if target < 0 {
		return 0, errors.New("seek: negative position")
	}

	switch {
	case target == s.pos:
	case s.r != nil && target > s.pos && target-s.pos <= int64(s.r.Buffered()):
		// Short forward skip within the read buffer.
		n, _ := s.r.Discard(int(target - s.pos))
		s.pos += int64(n)
	default:
		s.closeBody()
		s.pos = target
	}
	return s.pos, nil
}

// Size returns the stream length in bytes, or -1 if unknown.
func (s *httpSource) Size() int64 { return s.size }

func (s *httpSource) Close() error {
	s.closeBody()
	return nil
}

func (s *httpSource) closeBody() {
	if s.body != nil {
		s.body.Close()
	}
	s.body = nil
	s.r = nil
}
