package dssatfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
)

const (
	detailFile = "DETAIL.CDE"
	proFile    = "DSSATPRO.V48"
)

// Catalog reads crop metadata and folder listings from a DSSAT installation.
// It implements domain.CropCatalog.
type Catalog struct {
	base   string
	logger *slog.Logger
}

// NewCatalog creates a catalog rooted at the DSSAT base directory.
func NewCatalog(base string, logger *slog.Logger) *Catalog {
	return &Catalog{base: base, logger: logger}
}

// Crops reads crop codes and names from DETAIL.CDE and their directories
// from DSSATPRO.V48. A missing DSSATPRO.V48 leaves directories empty.
func (c *Catalog) Crops(_ context.Context) ([]domain.Crop, error) {
	detail, err := ReadLines(filepath.Join(c.base, detailFile))
	if err != nil {
		return nil, fmt.Errorf("read crop species: %w", err)
	}
	crops := domain.ParseCropSpecies(detail)

	pro, err := ReadLines(filepath.Join(c.base, proFile))
	if err != nil {
		c.logger.Warn("crop directories unavailable", "file", proFile, "error", err)
		return crops, nil
	}
	return domain.ApplyCropDirectories(crops, pro), nil
}

// Crop looks up a crop by name, ignoring case.
func (c *Catalog) Crop(ctx context.Context, name string) (domain.Crop, error) {
	crops, err := c.Crops(ctx)
	if err != nil {
		return domain.Crop{}, err
	}
	crop, ok := domain.FindCrop(crops, name)
	if !ok {
		return domain.Crop{}, fmt.Errorf("%w: %s", domain.ErrUnknownCrop, name)
	}
	return crop, nil
}

// Experiments lists the experiment files of a crop (*.<code>X) with their
// titles, sorted by file name.
func (c *Catalog) Experiments(crop domain.Crop) ([]domain.Experiment, error) {
	dir, err := cropDir(crop)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*."+crop.Code+"X"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := make([]domain.Experiment, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		title := name
		if lines, err := ReadLines(path); err != nil {
			c.logger.Warn("could not read experiment details", "file", name, "error", err)
		} else {
			title = domain.ExperimentTitle(lines, name)
		}
		out = append(out, domain.Experiment{File: name, Title: title})
	}
	return out, nil
}

// OutputFiles lists the simulation output files (*.OUT) of a crop, sorted.
func (c *Catalog) OutputFiles(crop domain.Crop) ([]string, error) {
	dir, err := cropDir(crop)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".OUT") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	c.logger.Debug("output files found", "crop", crop.Name, "count", len(out))
	return out, nil
}

// Treatments reads the treatment list of one experiment file.
func (c *Catalog) Treatments(crop domain.Crop, experiment string) ([]domain.Treatment, error) {
	if err := domain.CheckFileName(experiment); err != nil {
		return nil, err
	}
	lines, err := ReadLines(crop.Path(experiment))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, experiment)
	}
	if err != nil {
		return nil, err
	}
	return domain.ParseTreatments(lines), nil
}

// CheckInstallation reports every required installation file that is
// missing from the base directory.
func (c *Catalog) CheckInstallation(executable string) error {
	var errs []error
	for _, name := range []string{proFile, detailFile, executable} {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.base, name)
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func cropDir(crop domain.Crop) (string, error) {
	dir := strings.TrimSpace(crop.Directory)
	if dir == "" {
		return "", fmt.Errorf("%w: no directory for crop %s", domain.ErrWorkDirNotFound, crop.Name)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fs.ErrNotExist
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrWorkDirNotFound, dir, err)
	}
	return dir, nil
}
