package normalize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// convertToPDF shells out to the office conversion tool and returns the
// converted bytes. Temporary files are removed on every exit path.
func (n *Normalizer) convertToPDF(ctx context.Context, data []byte, ext string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "resume-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "input"+ext)
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	cmd := exec.CommandContext(ctx, n.sofficePath, "--headless", "--convert-to", "pdf", "--outdir", dir, inPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("office conversion: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("office conversion: %w", err)
	}

	outPath := filepath.Join(dir, "input.pdf")
	converted, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read converted pdf: %w", err)
	}

	if err := checkPDF(converted); err != nil {
		return nil, fmt.Errorf("converted pdf unreadable: %w", err)
	}
	return converted, nil
}

func checkPDF(data []byte) error {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}
