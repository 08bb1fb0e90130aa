package config

import (
	"os"
	"path/filepath"

	"github.com/devnull-http/devnull/internal/common/yamlutil"
)

// ParsedUserConfig is the Loader's output: the root document plus every
// discovered response config, with all ResponseData::File occurrences
// already resolved into in-memory strings.
type ParsedUserConfig struct {
	Root    RootConfig
	Configs []ResponseConfig
}

// Load reads rootPath, expands its response glob patterns relative to its
// own directory, and returns the fully materialized configuration tree.
//
// Failure policy: any read or schema error while decoding the root file or
// a discovered response file is fatal (*ParseError). A glob pattern that
// matches nothing is not an error; a glob pattern with invalid syntax is.
func Load(rootPath string) (*ParsedUserConfig, error) {
	rootDir := filepath.Dir(rootPath)

	var root RootConfig
	if err := yamlutil.UnmarshalFileStrict(rootPath, &root); err != nil {
		return nil, &ParseError{Path: rootPath, Err: err}
	}

	var configs []ResponseConfig
	for _, pattern := range root.Responses.Paths {
		resolved := pattern
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(rootDir, resolved)
		}

		matches, err := filepath.Glob(resolved)
		if err != nil {
			return nil, &ParseError{Path: pattern, Err: err}
		}

		for _, file := range matches {
			rc, err := loadResponseConfigFile(file)
			if err != nil {
				return nil, &ParseError{Path: file, Err: err}
			}
			configs = append(configs, *rc)
		}
	}

	return &ParsedUserConfig{Root: root, Configs: configs}, nil
}

// loadResponseConfigFile decodes a single response config file and resolves
// every ResponseData::File occurrence relative to *that file's own*
// directory, per spec §4.1 step 3.
func loadResponseConfigFile(path string) (*ResponseConfig, error) {
	var rc ResponseConfig
	if err := yamlutil.UnmarshalFileStrict(path, &rc); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)

	switch rc.Kind {
	case KindStaticHTTP:
		for i := range rc.Static.Responses {
			if err := resolveResponseBody(&rc.Static.Responses[i].Body, dir); err != nil {
				return nil, err
			}
		}
	case KindLuaScript:
		if err := resolveResponseData(&rc.Lua.Script, dir); err != nil {
			return nil, err
		}
	case KindWasmPlugin:
		if err := resolveResponseData(&rc.Wasm.Module, dir); err != nil {
			return nil, err
		}
	}

	return &rc, nil
}

func resolveResponseBody(body *ResponseBody, dir string) error {
	if body.Kind == BodyEmpty {
		return nil
	}
	return resolveResponseData(&body.Data, dir)
}

// resolveResponseData turns a File-variant ResponseData into a Data-variant
// by reading the file's contents once, relative to dir. Data-variant passes
// through verbatim.
func resolveResponseData(rd *ResponseData, dir string) error {
	if !rd.IsFile() {
		return nil
	}

	path := rd.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rd.Data = string(contents)
	rd.File = ""
	return nil
}
