package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed manifest.schema.json
var manifestSchema []byte

// Options configures a Resolver.
type Options struct {
	// Root is the absolute watched folder batch paths are relative to.
	Root           string
	Manifest       string
	RequiredFields []string
	DatePattern    string
	RunPattern     string
}

// Resolver derives RunMetadata from a batch of paths.
type Resolver struct {
	root         string
	manifestName string
	required     []string
	dateRe       *regexp.Regexp
	runRe        *regexp.Regexp
	validator    *schema.Validator
	logger       *logrus.Entry
}

// New compiles the folder patterns and the manifest schema.
func New(opts Options) (*Resolver, error) {
	dateRe, err := regexp.Compile(opts.DatePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid date pattern: %w", err)
	}
	runRe, err := regexp.Compile(opts.RunPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid run pattern: %w", err)
	}
	v, err := schema.Compile("manifest.schema.json", manifestSchema)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		root:         opts.Root,
		manifestName: opts.Manifest,
		required:     opts.RequiredFields,
		dateRe:       dateRe,
		runRe:        runRe,
		validator:    v,
		logger:       logging.NewLogger("manifest"),
	}, nil
}

// Resolve builds metadata for paths (slash-separated, relative to the root).
// paths is not modified.
func (r *Resolver) Resolve(paths []string) (*RunMetadata, error) {
	manifestRel := r.findManifest(paths)
	if manifestRel == "" {
		return nil, errors.ManifestMissing(r.manifestName)
	}

	doc, err := r.load(manifestRel)
	if err != nil {
		return nil, err
	}

	info, err := r.checkRunInfo(manifestRel, doc)
	if err != nil {
		return nil, err
	}

	dateFolder, runFolder, err := r.structure(manifestRel)
	if err != nil {
		return nil, err
	}

	files := append([]string(nil), paths...)
	sort.Strings(files)

	meta := &RunMetadata{
		DateFolder:   dateFolder,
		RunFolder:    runFolder,
		Manifest:     Manifest{RunInfo: *info},
		ManifestPath: manifestRel,
		TotalFiles:   len(paths),
		Files:        files,
	}
	r.logger.WithFields(logrus.Fields{
		"date":     dateFolder,
		"run":      runFolder,
		"run_type": info.RunType,
		"files":    len(paths),
	}).Debug("Resolved run metadata")
	return meta, nil
}

// ResolveDir lists every file under dir and resolves them as one batch.
func (r *Resolver) ResolveDir(dir string) (*RunMetadata, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(r.root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("%s is outside %s", p, r.root)
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Resolve(paths)
}

// findManifest picks the lexicographically first path named like the
// manifest.
func (r *Resolver) findManifest(paths []string) string {
	found := ""
	for _, p := range paths {
		if path.Base(p) != r.manifestName {
			continue
		}
		if found == "" || p < found {
			found = p
		}
	}
	return found
}

func (r *Resolver) load(rel string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, errors.ManifestInvalid(rel, "unreadable", err)
	}

	var doc interface{}
	switch strings.ToLower(path.Ext(rel)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.ManifestInvalid(rel, "malformed YAML", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.ManifestInvalid(rel, "malformed JSON", err)
		}
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errors.ManifestInvalid(rel, "top level is not an object", nil)
	}
	return obj, nil
}

// checkRunInfo enforces required fields first, then types, then decodes.
func (r *Resolver) checkRunInfo(rel string, doc map[string]interface{}) (*RunInfo, error) {
	raw, ok := doc["run_info"]
	if !ok || raw == nil {
		return nil, errors.ManifestIncomplete("run_info")
	}
	runInfo, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.ManifestInvalid(rel, "run_info is not an object", nil)
	}
	for _, field := range r.required {
		if v, ok := runInfo[field]; !ok || v == nil {
			return nil, errors.ManifestIncomplete(field)
		}
	}

	if err := r.validator.Validate(doc); err != nil {
		return nil, errors.ManifestInvalid(rel, err.Error(), err)
	}

	var info RunInfo
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &info,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(runInfo); err != nil {
		return nil, errors.ManifestInvalid(rel, "run_info could not be decoded", err)
	}
	return &info, nil
}

// structure finds the date folder and, below it, the run folder among the
// manifest's parent directories.
func (r *Resolver) structure(rel string) (string, string, error) {
	segments := strings.Split(path.Dir(rel), "/")

	dateIdx := -1
	for i, s := range segments {
		if r.dateRe.MatchString(s) {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return "", "", errors.StructureUnrecognized("date", rel)
	}
	for _, s := range segments[dateIdx+1:] {
		if r.runRe.MatchString(s) {
			return segments[dateIdx], s, nil
		}
	}
	return "", "", errors.StructureUnrecognized("run", rel)
}
