/*
Copyright © 2024 the InMAP authors.
This file is part of mpinterp.

mpinterp is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

mpinterp is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with mpinterp.  If not, see <http://www.gnu.org/licenses/>.
*/


package seriesio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	// Register the gs:// and s3:// URL openers.
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// IsBlob returns whether the given path represents a blob
// (i.e., if it starts with 'gs://', 's3://', 'file://' or 'mem://').
func IsBlob(path string) bool {
	for _, p := range []string{"gs://", "s3://", "file://", "mem://"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

var (
	memMu      sync.Mutex
	memBuckets = make(map[string]*blob.Bucket)
)

// OpenBucket returns the blob storage bucket specified by bucketURL,
// which must be in the format 'provider://name'.
// The accepted storage providers are "file" for the local filesystem,
// "mem" for in-memory storage that lasts for the life of the process
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
// Credentials for gs and s3 are taken from the environment.
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("seriesio.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.OpenBucket(u.Host+u.Path, &fileblob.Options{CreateDir: true})
	case "mem":
		memMu.Lock()
		defer memMu.Unlock()
		b, ok := memBuckets[u.Host]
		if !ok {
			b = memblob.OpenBucket(nil)
			memBuckets[u.Host] = b
		}
		return b, nil
	case "gs", "s3":
		return blob.OpenBucket(ctx, u.Scheme+"://"+u.Host)
	default:
		return nil, fmt.Errorf("seriesio.OpenBucket: invalid provider %s", u.Scheme)
	}
}

// splitBlob splits a blob path into its bucket URL and key. For file
// paths the bucket is the containing directory.
func splitBlob(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("seriesio: %v", err)
	}
	if u.Scheme == "file" {
		dir, file := filepath.Split(u.Host + u.Path)
		if file == "" {
			return "", "", fmt.Errorf("seriesio: %s does not name a file", path)
		}
		return "file://" + filepath.Clean(dir), file, nil
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("seriesio: %s does not name a blob", path)
	}
	return u.Scheme + "://" + u.Host, key, nil
}

// multiCloser closes a stack of closers from the top down, returning the
// first error.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	multiCloser
}

type writeCloser struct {
	io.Writer
	multiCloser
}

// bucketCloser closes a bucket unless it is a shared in-memory one.
type bucketCloser struct {
	b   *blob.Bucket
	mem bool
}

func (c bucketCloser) Close() error {
	if c.mem {
		return nil
	}
	return c.b.Close()
}

// Open opens path for reading. Paths that IsBlob accepts are read from
// blob storage; anything else is a local file. Files ending in ".gz"
// or ".zst" are decompressed.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	var r io.ReadCloser
	var closers multiCloser
	if IsBlob(path) {
		bucketURL, key, err := splitBlob(path)
		if err != nil {
			return nil, err
		}
		b, err := OpenBucket(ctx, bucketURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, bucketCloser{b: b, mem: strings.HasPrefix(path, "mem://")})
		br, err := b.NewReader(ctx, key, nil)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("seriesio: opening %s: %w", path, err)
		}
		r = br
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("seriesio: %w", err)
		}
		r = f
	}
	closers = append(closers, r)

	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("seriesio: opening %s: %w", path, err)
		}
		closers = append(closers, gz)
		return readCloser{Reader: gz, multiCloser: closers}, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("seriesio: opening %s: %w", path, err)
		}
		zrc := zr.IOReadCloser()
		closers = append(closers, zrc)
		return readCloser{Reader: zrc, multiCloser: closers}, nil
	}
	return readCloser{Reader: r, multiCloser: closers}, nil
}

// Create creates path for writing, compressing the output if the name
// ends in ".gz" or ".zst". The file is only complete once the returned
// writer has been closed without error.
func Create(ctx context.Context, path string) (io.WriteCloser, error) {
	var w io.WriteCloser
	var closers multiCloser
	if IsBlob(path) {
		bucketURL, key, err := splitBlob(path)
		if err != nil {
			return nil, err
		}
		b, err := OpenBucket(ctx, bucketURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, bucketCloser{b: b, mem: strings.HasPrefix(path, "mem://")})
		bw, err := b.NewWriter(ctx, key, nil)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("seriesio: creating %s: %w", path, err)
		}
		w = bw
	} else {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("seriesio: %w", err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("seriesio: %w", err)
		}
		w = f
	}
	closers = append(closers, w)

	switch filepath.Ext(path) {
	case ".gz":
		gz := gzip.NewWriter(w)
		closers = append(closers, gz)
		return writeCloser{Writer: gz, multiCloser: closers}, nil
	case ".zst":
		zw, err := zstd.NewWriter(w)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("seriesio: creating %s: %w", path, err)
		}
		closers = append(closers, zw)
		return writeCloser{Writer: zw, multiCloser: closers}, nil
	}
	return writeCloser{Writer: w, multiCloser: closers}, nil
}
