package textract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

// Methods reported in Result.Method.
const (
	MethodPDF       = "pdf"
	MethodPdftotext = "pdftotext"
	MethodDOCX      = "docx"
	MethodText      = "text"
)

type Config struct {
	Pdftotext string // external fallback binary; empty disables it
}

// Result is the text of one document.
type Result struct {
	Text     string
	Pages    int
	Method   string
	Warnings []string
}

// Extractor turns PDF, DOCX and TXT documents into plain text.
type Extractor struct {
	cfg      Config
	runner   Runner
	lookPath LookPather
	logger   *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the command runner used for the pdftotext fallback.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn LookPather) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.lookPath = fn
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		cfg:      cfg,
		runner:   execRunner{logger: logger},
		lookPath: exec.LookPath,
		logger:   logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Read extracts the text of the file at path.
func (e *Extractor) Read(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return e.read(ctx, filepath.Base(path), path, data)
}

// ReadBytes extracts the text of an in-memory document; name supplies the
// extension.
func (e *Extractor) ReadBytes(ctx context.Context, name string, data []byte) (Result, error) {
	return e.read(ctx, name, "", data)
}

func (e *Extractor) read(ctx context.Context, name, path string, data []byte) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(name))

	var (
		res Result
		err error
	)
	switch ext {
	case "pdf":
		res, err = e.readPDF(ctx, path, data)
	case "docx":
		res, err = readDOCX(data)
	case "txt":
		res = readTXT(data)
	default:
		return Result{}, common.NewAppError(common.CodeUnsupportedFileType,
			fmt.Sprintf("%q is not a pdf, docx or txt file", name), common.ErrUnsupportedFileType)
	}
	if err != nil {
		e.logger.Error("textract.failed", "file", name, "ext", ext, "error", err)
		return Result{}, err
	}

	res.Text = Normalize(res.Text)
	e.logger.Info("textract.ok",
		"file", name,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) readPDF(ctx context.Context, path string, data []byte) (Result, error) {
	text, pages, err := pdfPlainText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return Result{Text: text, Pages: pages, Method: MethodPDF}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, err.Error())
	} else {
		warns = append(warns, "pdf has no text layer")
	}
	if e.cfg.Pdftotext == "" {
		if err != nil {
			return Result{}, err
		}
		return Result{Pages: pages, Method: MethodPDF, Warnings: warns}, nil
	}
	if _, lerr := e.lookPath(e.cfg.Pdftotext); lerr != nil {
		warns = append(warns, e.cfg.Pdftotext+" not installed")
		if err != nil {
			return Result{}, err
		}
		return Result{Pages: pages, Method: MethodPDF, Warnings: warns}, nil
	}

	if path == "" {
		tmp, terr := os.CreateTemp("", "extract-*.pdf")
		if terr != nil {
			return Result{}, terr
		}
		defer func() { _ = os.Remove(tmp.Name()) }()
		if _, werr := tmp.Write(data); werr != nil {
			_ = tmp.Close()
			return Result{}, werr
		}
		if cerr := tmp.Close(); cerr != nil {
			return Result{}, cerr
		}
		path = tmp.Name()
	}

	e.logger.Warn("textract.pdf.fallback", "tool", e.cfg.Pdftotext, "reason", warns[len(warns)-1])
	out, errb, rerr := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if rerr != nil {
		return Result{}, fmt.Errorf("pdftotext: %w: %s", rerr, truncate(string(errb), 512))
	}
	text = string(out)
	// pdftotext separates pages with a form feed
	return Result{
		Text:     text,
		Pages:    1 + strings.Count(strings.TrimRight(text, "\f"), "\f"),
		Method:   MethodPdftotext,
		Warnings: warns,
	}, nil
}
