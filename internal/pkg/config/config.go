// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"strings"
	"sync"

	"golang.org/x/mod/module"
	"sigs.k8s.io/yaml"

	"github.com/taintwalk/taintwalk/internal/pkg/config/regexp"
)

// FlagSet should be used by analyzers to reuse the -config flag.
var FlagSet flag.FlagSet
var configFile string

func init() {
	FlagSet.StringVar(&configFile, "config", "config.yaml", "path to analysis configuration file")
}

// defaultMaxLoopIter is used when a config omits max_loop_iter or sets
// it to zero.
const defaultMaxLoopIter = 5

// SinkFunctionArg names one argument of one function as a sink: the
// value reaching arg_idx of function, if it could match forbidden (a
// literal or a '*'-glob), is a hit.
type SinkFunctionArg struct {
	Function  string `json:"function"`
	ArgIdx    int    `json:"arg_idx"`
	Forbidden string `json:"forbidden"`
}

// Config is the analysis configuration: which functions produce
// tainted values, which function arguments are dangerous sinks and
// what value they must not take, which environment variables a write
// to should be flagged, and the loop-widening bound.
type Config struct {
	MaxLoopIter      int               `json:"max_loop_iter"`
	SourceFunctions  []string          `json:"source_functions"`
	SinkFunctionArgs []SinkFunctionArg `json:"sink_function_args"`
	EnvVarsToTrack   []string          `json:"env_vars_to_track"`

	// SourcePackagePatterns marks every function in any package whose
	// import path matches one of these patterns as a source, without
	// enumerating each function by name. Useful for a package like an
	// untrusted-input SDK where listing every entry point individually
	// is impractical.
	SourcePackagePatterns []regexp.Regexp `json:"source_package_patterns"`
}

// EffectiveMaxLoopIter returns the configured loop bound, or the
// default if the config left it unset.
func (c *Config) EffectiveMaxLoopIter() int {
	if c == nil || c.MaxLoopIter <= 0 {
		return defaultMaxLoopIter
	}
	return c.MaxLoopIter
}

// IsSource reports whether qualifiedName (as produced by
// utils.QualifiedName) names a configured source function, either by
// exact name or because its package-qualifying prefix matches a
// configured SourcePackagePatterns entry.
func (c *Config) IsSource(qualifiedName string) bool {
	for _, s := range c.SourceFunctions {
		if s == qualifiedName {
			return true
		}
	}
	if len(c.SourcePackagePatterns) == 0 {
		return false
	}
	pkg := packagePrefix(qualifiedName)
	for _, re := range c.SourcePackagePatterns {
		if re.MatchString(pkg) {
			return true
		}
	}
	return false
}

// packagePrefix returns the package-qualifying portion of a dotted
// qualified name (everything before the last segment), mirroring the
// prefix stripped for validation in validateQualifiedName.
func packagePrefix(qualifiedName string) string {
	dot := strings.LastIndexByte(qualifiedName, '.')
	if dot <= 0 {
		return ""
	}
	prefix := strings.TrimSuffix(qualifiedName[:dot], ")")
	return strings.SplitN(prefix, ".(", 2)[0]
}

// envMutationFunction is the standard library's environment-mutation
// entry point; every tracked environment variable becomes a sink rule
// on its first argument.
const envMutationFunction = "os.Setenv"

// SinksFor returns every configured sink entry for qualifiedName, in
// configuration order, plus one synthesized entry per tracked
// environment variable when qualifiedName is the env-mutation
// function: a tracked variable's name is the forbidden literal for
// argument 0. A function may be configured as a sink on more than one
// argument/forbidden-value pair.
func (c *Config) SinksFor(qualifiedName string) []SinkFunctionArg {
	var out []SinkFunctionArg
	for _, s := range c.SinkFunctionArgs {
		if s.Function == qualifiedName {
			out = append(out, s)
		}
	}
	if qualifiedName == envMutationFunction {
		for _, v := range c.EnvVarsToTrack {
			out = append(out, SinkFunctionArg{Function: envMutationFunction, ArgIdx: 0, Forbidden: v})
		}
	}
	return out
}

// IsTrackedEnvVar reports whether name is one of the environment
// variables this config asks the analyzer to protect against mutation.
func (c *Config) IsTrackedEnvVar(name string) bool {
	for _, v := range c.EnvVarsToTrack {
		if v == name {
			return true
		}
	}
	return false
}

// validate rejects a config whose source/sink entries can never match
// anything because the function name isn't even syntactically
// plausible, catching a config typo (a stray quote, an empty string, a
// path with invalid characters) at load time instead of the analyzer
// silently never firing a sink.
func (c *Config) validate() error {
	for _, s := range c.SourceFunctions {
		if err := validateQualifiedName(s); err != nil {
			return fmt.Errorf("source_functions: %q: %w", s, err)
		}
	}
	for _, s := range c.SinkFunctionArgs {
		if err := validateQualifiedName(s.Function); err != nil {
			return fmt.Errorf("sink_function_args: %q: %w", s.Function, err)
		}
		if s.Forbidden == "" {
			return fmt.Errorf("sink_function_args: %q: forbidden value must not be empty", s.Function)
		}
	}
	return nil
}

// validateQualifiedName checks that the package-qualifying prefix of a
// dotted function name (everything before the last segment) is at
// least a syntactically valid Go import path. It deliberately does not
// require the full name to resolve against any particular build; a
// source/sink naming a function in a package that isn't actually
// imported by the program under analysis is not an error, it simply
// never matches.
func validateQualifiedName(qualifiedName string) error {
	if qualifiedName == "" {
		return fmt.Errorf("must not be empty")
	}
	prefix := packagePrefix(qualifiedName)
	if prefix == "" {
		return nil
	}
	if err := module.CheckImportPath(prefix); err != nil {
		return fmt.Errorf("invalid package path %q: %w", prefix, err)
	}
	return nil
}

var readFileOnce sync.Once
var readConfigCached *Config
var readConfigCachedErr error

// ReadConfig reads and parses the file named by the -config flag the
// first time it's called, and returns the cached result on every
// subsequent call (matching every other analysis.Pass-based tool in
// this lineage, which call ReadConfig once per loaded package).
func ReadConfig() (*Config, error) {
	readFileOnce.Do(func() {
		bytes, err := ioutil.ReadFile(configFile)
		if err != nil {
			readConfigCachedErr = fmt.Errorf("error reading analysis config: %v", err)
			return
		}
		c, err := parse(bytes)
		if err != nil {
			readConfigCachedErr = err
			return
		}
		readConfigCached = c
	})
	return readConfigCached, readConfigCachedErr
}

// SetBytes bypasses the -config flag, parsing config directly from
// bytes and installing the result as the cached config every later
// ReadConfig call returns. Exists for tests and for embedding taintwalk
// in a larger tool that already has config in memory.
func SetBytes(bytes []byte) (*Config, error) {
	c, err := parse(bytes)
	if err != nil {
		return nil, err
	}
	readFileOnce.Do(func() {})
	readConfigCached = c
	readConfigCachedErr = nil
	return c, nil
}

func parse(bytes []byte) (*Config, error) {
	c := new(Config)
	// yaml.Unmarshal accepts both YAML and JSON documents, so a single
	// code path serves "-config config.json" and "-config config.yaml".
	if err := yaml.Unmarshal(bytes, c); err != nil {
		return nil, fmt.Errorf("error parsing analysis config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	return c, nil
}
