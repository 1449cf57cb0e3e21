package schemaaudit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/louisbranch/playlog/internal/services/tracker/storage/schema"
)

// DefaultTypeTables is the table association applied to scraped source
// declarations, which carry no table names of their own.
var DefaultTypeTables = map[string]string{
	"players":        "Player",
	"game_templates": "GameTemplate",
	"game_sessions":  "GameSession",
}

var interfacePattern = regexp.MustCompile(`export\s+interface\s+([A-Za-z_$][\w$]*)[^{]*\{([^}]*)\}`)

// ScanInterfaces extracts "export interface Name { ... }" blocks from
// source text. Each field is the text before the first colon of a body
// line with a trailing "?" removed; lines without a colon are ignored.
func ScanInterfaces(source string) []schema.Type {
	var types []schema.Type
	for _, match := range interfacePattern.FindAllStringSubmatch(source, -1) {
		declared := schema.Type{Name: match[1]}
		for _, line := range strings.Split(match[2], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*") {
				continue
			}
			name, _, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			name = strings.TrimSuffix(strings.TrimSpace(name), "?")
			if name = strings.TrimSpace(name); name != "" {
				declared.Fields = append(declared.Fields, name)
			}
		}
		types = append(types, declared)
	}
	return types
}

// declaredTypes loads the declarations to audit against. A source path
// selects textual scanning with DefaultTypeTables; otherwise the YAML
// declarations at declarationsPath (or the embedded default) are used. A
// missing source file degrades to no types plus a note.
func declaredTypes(sourcePath, declarationsPath string) ([]schema.Type, map[string]string, []string) {
	if sourcePath = strings.TrimSpace(sourcePath); sourcePath != "" {
		content, err := os.ReadFile(sourcePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, DefaultTypeTables, []string{fmt.Sprintf("type source %s not found; no declared types scanned", sourcePath)}
			}
			return nil, DefaultTypeTables, []string{fmt.Sprintf("type source %s unreadable: %v", sourcePath, err)}
		}
		return ScanInterfaces(string(content)), DefaultTypeTables, nil
	}

	var (
		doc schema.Declarations
		err error
	)
	if declarationsPath = strings.TrimSpace(declarationsPath); declarationsPath != "" {
		doc, err = schema.Load(declarationsPath)
	} else {
		doc, err = schema.Default()
	}
	if err != nil {
		return nil, nil, []string{fmt.Sprintf("declarations unavailable: %v", err)}
	}
	return doc.Types, doc.Tables(), nil
}
