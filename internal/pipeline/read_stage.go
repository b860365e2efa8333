package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

// admit decides whether a file enters the pipeline. A non-empty status means
// the file is skipped with that status.
func admit(f File) (constants.FileStatus, error) {
	if !constants.IsAllowedExt(filepath.Ext(f.Name)) || !constants.IsAllowedContentType(f.ContentType) {
		return constants.FileStatusUnsupported, common.NewAppError(common.CodeUnsupportedFileType,
			fmt.Sprintf("%s: unsupported file type", f.Name), common.ErrUnsupportedFileType)
	}
	size, err := fileSize(f)
	if err != nil {
		return constants.FileStatusFailed, err
	}
	if size == 0 {
		return constants.FileStatusEmpty, nil
	}
	return "", nil
}

func fileSize(f File) (int64, error) {
	if f.Data != nil || f.Path == "" {
		return int64(len(f.Data)), nil
	}
	fi, err := os.Stat(f.Path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", f.Name, err)
	}
	return fi.Size(), nil
}

func (p *Processor) readText(ctx context.Context, f File) (string, error) {
	if f.Data != nil || f.Path == "" {
		res, err := p.reader.ReadBytes(ctx, f.Name, f.Data)
		return res.Text, err
	}
	res, err := p.reader.Read(ctx, f.Path)
	return res.Text, err
}
