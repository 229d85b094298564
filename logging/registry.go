package logging

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern. A `*` section
// matches any run of sections.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "tracker".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "tracker" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "evasion.*.stats".
	validLoggerName = `^` + validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*$`
)

var loggerPatternRegexp = regexp.MustCompile(validLoggerName)

// Validate ensures the pattern and level can be applied.
func (lpc LoggerPatternConfig) Validate() error {
	if !loggerPatternRegexp.MatchString(lpc.Pattern) {
		return errors.Errorf("invalid logger pattern %q", lpc.Pattern)
	}
	_, err := LevelFromString(lpc.Level)
	return err
}

func buildRegexFromPattern(pattern string) *regexp.Regexp {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return regexp.MustCompile(matcher.String())
}

type registeredLogger struct {
	logger Logger
	// initial is the level the logger had when registered; it is restored when no pattern matches.
	initial Level
}

// Registry tracks a logger and all of its subloggers by name so pattern configs can change their
// levels.
type Registry struct {
	mu       sync.RWMutex
	loggers  map[string]registeredLogger
	patterns []LoggerPatternConfig
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[string]registeredLogger)}
}

// Register adds logger to the registry. Subloggers created from it afterwards are registered as
// well. Loggers not created by this package are returned unregistered.
func (lr *Registry) Register(logger Logger) Logger {
	imp, ok := logger.(*impl)
	if !ok {
		return logger
	}
	imp.registry = lr
	return lr.getOrRegister(imp.name, imp)
}

// getOrRegister returns the logger already registered under name, or registers logger and applies
// the current patterns to it.
func (lr *Registry) getOrRegister(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existing, ok := lr.loggers[name]; ok {
		return existing.logger
	}
	lr.loggers[name] = registeredLogger{logger: logger, initial: logger.Level()}
	if level, ok := matchLevel(lr.patterns, name); ok {
		logger.SetLevel(level)
	}
	return logger
}

// LoggerNamed returns the registered logger with the given name.
func (lr *Registry) LoggerNamed(name string) (Logger, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	rl, ok := lr.loggers[name]
	return rl.logger, ok
}

// Names returns the names of all registered loggers, sorted.
func (lr *Registry) Names() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	names := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update replaces the pattern config and reapplies it to every registered logger. Invalid patterns
// are skipped with a warning. Later patterns win over earlier ones; loggers no pattern matches go
// back to their initial level.
func (lr *Registry) Update(patterns []LoggerPatternConfig, errorLogger Logger) {
	valid := make([]LoggerPatternConfig, 0, len(patterns))
	for _, lpc := range patterns {
		if err := lpc.Validate(); err != nil {
			errorLogger.Warnw("ignoring logger pattern", "pattern", lpc.Pattern, "error", err)
			continue
		}
		valid = append(valid, lpc)
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.patterns = valid
	for name, rl := range lr.loggers {
		level, ok := matchLevel(valid, name)
		if !ok {
			level = rl.initial
		}
		rl.logger.SetLevel(level)
	}
}

func matchLevel(patterns []LoggerPatternConfig, name string) (Level, bool) {
	var level Level
	matched := false
	for _, lpc := range patterns {
		if !buildRegexFromPattern(lpc.Pattern).MatchString(name) {
			continue
		}
		//nolint:errcheck
		level, _ = LevelFromString(lpc.Level)
		matched = true
	}
	return level, matched
}
