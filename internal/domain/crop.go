package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Crop is one entry of the crop catalog.
type Crop struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Directory string `json:"directory"`
}

// Path joins a file name onto the crop directory.
func (c Crop) Path(name string) string {
	return filepath.Join(strings.TrimSpace(c.Directory), name)
}

// CheckFileName rejects names that are not a plain file inside a crop
// directory, such as absolute paths or names with separators or "..".
func CheckFileName(name string) error {
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return fmt.Errorf("%w: invalid file name %q", ErrInvalidRequest, name)
	}
	return nil
}

// ObservedFile names the observed-data file of an experiment:
// <experiment base>.<crop code>T.
func (c Crop) ObservedFile(experiment string) string {
	base, _, _ := strings.Cut(experiment, ".")
	return base + "." + c.Code + "T"
}

// ParseCropSpecies reads the "*Crop and Weed Species" section of DETAIL.CDE.
// The code is the first two characters of columns 0-8 and the name is
// columns 8-72.
func ParseCropSpecies(lines []string) []Crop {
	var crops []Crop
	in := false
	for _, line := range lines {
		if strings.Contains(line, "*Crop and Weed Species") {
			in = true
			continue
		}
		if !in || strings.Contains(line, "@CDE") {
			continue
		}
		if strings.HasPrefix(line, "*") {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		code := strings.TrimSpace(field(line, 0, 8))
		name := strings.TrimSpace(field(line, 8, 72))
		if code == "" || name == "" {
			continue
		}
		if len(code) > 2 {
			code = code[:2]
		}
		crops = append(crops, Crop{Code: code, Name: name})
	}
	return crops
}

// ApplyCropDirectories fills crop directories from DSSATPRO.V48 lines of the
// form "<code>D <directory>". A "C: \DSSAT48" style drive separator is
// collapsed to "C:\DSSAT48".
func ApplyCropDirectories(crops []Crop, lines []string) []Crop {
	out := make([]Crop, len(crops))
	copy(out, crops)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasSuffix(fields[0], "D") {
			continue
		}
		code := strings.TrimSuffix(fields[0], "D")
		dir := strings.ReplaceAll(strings.TrimSpace(line[len(fields[0]):]), ": ", ":")
		for i := range out {
			if out[i].Code == code {
				out[i].Directory = dir
				break
			}
		}
	}
	return out
}

// FindCrop looks a crop up by name, ignoring case.
func FindCrop(crops []Crop, name string) (Crop, bool) {
	for _, c := range crops {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Crop{}, false
}

// Experiment is a DSSAT experiment file with its display title.
type Experiment struct {
	File  string `json:"file"`
	Title string `json:"title"`
}

// ExperimentTitle extracts the title from the "*EXP.DETAILS:" line of an
// experiment file, dropping the leading experiment code. It falls back to
// def when the line is absent.
func ExperimentTitle(lines []string, def string) string {
	for _, line := range lines {
		_, after, ok := strings.Cut(strings.TrimSpace(line), "*EXP.DETAILS:")
		if !ok {
			continue
		}
		fields := strings.Fields(after)
		if len(fields) < 2 {
			return def
		}
		return strings.Join(fields[1:], " ")
	}
	return def
}
