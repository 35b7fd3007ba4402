package normalize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"jobmatch-backend/internal/llm"
	"jobmatch-backend/internal/shared/telemetry"
)

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Strategy tags how an attachment was turned into prompt parts.
const (
	StrategyPDFInline = "pdf-inline"
	StrategyWordPDF   = "word-pdf"
	StrategyWordText  = "word-text"
)

// ErrUnsupportedFormat signals an attachment that cannot be prepared for the model.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// Attachment is a stored resume payload with its declared media type.
type Attachment struct {
	Data      []byte
	MediaType string
	FileName  string
}

// Result carries the prepared prompt parts and the strategy used to build them.
// Converted holds the word->pdf artifact when conversion produced one, so
// callers can persist what the model actually saw.
type Result struct {
	Parts     []llm.Part
	Strategy  string
	Converted []byte
}

// Normalizer turns resume attachments into model-consumable parts.
type Normalizer struct {
	sofficePath string
}

// New builds a normalizer using the given office conversion binary.
func New(sofficePath string) *Normalizer {
	if strings.TrimSpace(sofficePath) == "" {
		sofficePath = "soffice"
	}
	return &Normalizer{sofficePath: sofficePath}
}

// Prepare converts an attachment into prompt parts or fails with ErrUnsupportedFormat.
func (n *Normalizer) Prepare(ctx context.Context, att Attachment) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(att.Data) == 0 {
		return Result{}, fmt.Errorf("%w: empty attachment", ErrUnsupportedFormat)
	}

	switch detectFormat(att.MediaType, att.FileName) {
	case mimePDF:
		return Result{
			Parts:    []llm.Part{llm.BlobPart(mimePDF, att.Data)},
			Strategy: StrategyPDFInline,
		}, nil
	case mimeDOC, mimeDOCX:
		return n.prepareWord(ctx, att)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, att.MediaType)
	}
}

func (n *Normalizer) prepareWord(ctx context.Context, att Attachment) (Result, error) {
	ext := strings.ToLower(filepath.Ext(att.FileName))
	if ext == "" {
		ext = ".docx"
	}

	pdfBytes, convErr := n.convertToPDF(ctx, att.Data, ext)
	if convErr == nil {
		return Result{
			Parts:     []llm.Part{llm.BlobPart(mimePDF, pdfBytes)},
			Strategy:  StrategyWordPDF,
			Converted: pdfBytes,
		}, nil
	}
	telemetry.Info("normalize.convert_fallback", map[string]any{
		"file_name": att.FileName,
		"error":     convErr.Error(),
	})

	text, extErr := extractDocxText(att.Data)
	if extErr == nil && strings.TrimSpace(text) != "" {
		return Result{
			Parts:    []llm.Part{llm.TextPart(text)},
			Strategy: StrategyWordText,
		}, nil
	}

	return Result{}, fmt.Errorf("%w: convert: %v", ErrUnsupportedFormat, convErr)
}

func detectFormat(mediaType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	switch clean {
	case mimePDF, mimeDOC, mimeDOCX:
		return clean
	case "application/zip", "application/octet-stream", "":
	default:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".doc":
		return mimeDOC
	case ".docx":
		return mimeDOCX
	default:
		return clean
	}
}
