// Package data reads the fixture files embedded in the harness: the product catalog used by the
// generator, the cart and user fixtures, and parameterized scenario files.
package data

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

//go:embed data-files
var dataFilesRoot embed.FS

const dataBasePath = "data-files"

// SourceInfo is one document read from a data file after constants and parameters have been
// expanded. A file without "parameters" produces one SourceInfo; a parameterized file produces
// one per parameter set.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

// ParseInto decodes the document as JSON or YAML into target.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString describes the parameter set, such as "(FIELD=email,STATUS=400)", with names in
// alphabetical order. It is empty for a non-parameterized file.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	names := maps.Keys(s.Params)
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := s.Params[name]
		if value.IsString() {
			parts = append(parts, name+"="+value.StringValue())
		} else {
			parts = append(parts, name+"="+value.JSONString())
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// LoadDataFile reads a file relative to data/data-files and expands its substitutions.
func LoadDataFile(filePath string) ([]SourceInfo, error) {
	raw, err := dataFilesRoot.ReadFile(dataBasePath + "/" + filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	sources, err := expandSubstitutions(raw)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filePath, err)
	}
	for i := range sources {
		sources[i].FilePath = filePath
		sources[i].BaseName = path.Base(filePath)
	}
	return sources, nil
}

// LoadAllDataFiles reads every file in a directory relative to data/data-files, in name order.
func LoadAllDataFiles(dirPath string) ([]SourceInfo, error) {
	entries, err := dataFilesRoot.ReadDir(dataBasePath + "/" + dirPath)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		sources, err := LoadDataFile(dirPath + "/" + entry.Name())
		if err != nil {
			return nil, err
		}
		ret = append(ret, sources...)
	}
	return ret, nil
}

// LoadSingle reads a file that must not be parameterized and decodes it into target.
func LoadSingle(filePath string, target interface{}) error {
	sources, err := LoadDataFile(filePath)
	if err != nil {
		return err
	}
	if len(sources) != 1 {
		return fmt.Errorf("%q expanded to %d documents, expected 1", filePath, len(sources))
	}
	return sources[0].ParseInto(target)
}
