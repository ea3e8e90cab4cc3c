package acquisition

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/klauspost/compress/zip"
)

// Unpack extracts every member of a zip archive into destDir and returns the
// extracted file paths. The archive is deleted afterwards whether or not
// extraction succeeded, so a retry never sees a stale archive.
func Unpack(archivePath, destDir string) (paths []string, err error) {
	defer func() {
		if rmErr := os.Remove(archivePath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("failed to remove archive %s: %w", archivePath, rmErr)
		}
	}()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, archivePath, "cannot open archive", err)
	}
	defer reader.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	for _, f := range reader.File {
		target := filepath.Join(root, f.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return paths, models.NewAppError(models.KindExtraction, archivePath, "member escapes destination: "+f.Name, nil)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return paths, err
			}
			continue
		}

		if err := extractMember(f, target); err != nil {
			return paths, models.NewAppError(models.KindExtraction, archivePath, "cannot extract "+f.Name, err)
		}
		paths = append(paths, target)
	}

	return paths, nil
}

func extractMember(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return err
	}
	return dst.Close()
}

// Compress bundles files into a new zip archive at zipPath, stored by base name.
func Compress(files []string, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", zipPath, err)
	}

	w := zip.NewWriter(out)
	for _, file := range files {
		if err := addToArchive(w, file); err != nil {
			w.Close()
			out.Close()
			os.Remove(zipPath)
			return fmt.Errorf("failed to add %s to archive: %w", file, err)
		}
	}

	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addToArchive(w *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := w.CreateHeader(&zip.FileHeader{Name: filepath.Base(file), Method: zip.Deflate})
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	return err
}
