package dictionary

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EnsureDictionary makes sure a lexicon document exists at path. If it does
// not, the document is downloaded from sourceURL. Plain JSON, gzip and
// tar.gz archives (first .json entry) are accepted.
func EnsureDictionary(ctx context.Context, path, sourceURL string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if sourceURL == "" {
		return fmt.Errorf("lexicon document %s not found and no download source configured", path)
	}

	logger.Info("lexicon document missing, downloading", zap.String("path", path), zap.String("url", sourceURL))
	return download(ctx, sourceURL, path)
}

func download(ctx context.Context, sourceURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "lushi-cli")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	src, closeSrc, err := unpack(bufio.NewReader(resp.Body))
	if err != nil {
		return err
	}
	defer closeSrc()

	tmp := destPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, destPath)
}

// unpack sniffs the gzip magic and, inside gzip, a tar header.
func unpack(r *bufio.Reader) (io.Reader, func(), error) {
	noop := func() {}
	magic, err := r.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, noop, err
	}
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return r, noop, nil
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	inner := bufio.NewReader(gz)
	// A tar archive carries "ustar" at offset 257.
	head, _ := inner.Peek(262)
	if len(head) < 262 || string(head[257:262]) != "ustar" {
		return inner, func() { gz.Close() }, nil
	}

	tr := tar.NewReader(inner)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			gz.Close()
			return nil, noop, fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return tr, func() { gz.Close() }, nil
		}
	}
	gz.Close()
	return nil, noop, fmt.Errorf("no json file found in downloaded archive")
}
