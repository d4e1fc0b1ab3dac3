package kartavya

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// VidhiStep is one call in a named stored procedure.
type VidhiStep struct {
	ToolName  string         `yaml:"tool"`
	Arguments map[string]any `yaml:"arguments"`
}

// Vidhi is a named, ordered sequence of tool calls resolvable by the
// dispatcher's ActionVidhi handler.
type Vidhi struct {
	Name  string      `yaml:"name"`
	Steps []VidhiStep `yaml:"steps"`
}

type vidhiFile struct {
	Vidhis []Vidhi `yaml:"vidhis"`
}

// VidhiLibrary resolves stored procedures by name. Safe for concurrent use.
type VidhiLibrary struct {
	mu     sync.RWMutex
	vidhis map[string]Vidhi
}

// NewVidhiLibrary creates an empty library.
func NewVidhiLibrary() *VidhiLibrary {
	return &VidhiLibrary{vidhis: make(map[string]Vidhi)}
}

// LoadYAML parses a document of the form:
//
//	vidhis:
//	  - name: restart-service
//	    steps:
//	      - tool: shell
//	        arguments: {command: "systemctl restart app"}
//
// and merges the result into the library, overwriting names it already holds.
func (l *VidhiLibrary) LoadYAML(data []byte) error {
	var f vidhiFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("kartavya: parse vidhi library: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range f.Vidhis {
		l.vidhis[v.Name] = v
	}
	return nil
}

// Register adds or replaces a single vidhi programmatically.
func (l *VidhiLibrary) Register(v Vidhi) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vidhis[v.Name] = v
}

// Resolve returns the named vidhi, or ok=false if unknown.
func (l *VidhiLibrary) Resolve(name string) (Vidhi, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vidhis[name]
	return v, ok
}
