package instrdocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/markup"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported documentation format")

type syntaxFile struct {
	Name    string  `json:"name"    yaml:"name"`
	Args    *string `json:"args"    yaml:"args"`
	NumArgs int     `json:"numargs" yaml:"numargs"`
	Comment *string `json:"comment" yaml:"comment"`
}

type encodingFile struct {
	Heading string       `json:"heading" yaml:"heading"`
	Page    *string      `json:"page"    yaml:"page"`
	Syntax  []syntaxFile `json:"syntax"  yaml:"syntax"`
}

type extendedMnemonicFile struct {
	Name     string  `json:"name"     yaml:"name"`
	Args     *string `json:"args"     yaml:"args"`
	NumArgs  int     `json:"numargs"  yaml:"numargs"`
	BaseName string  `json:"baseName" yaml:"baseName"`
	BaseArgs *string `json:"baseArgs" yaml:"baseArgs"`
}

type instructionFile struct {
	Encodings         []encodingFile         `json:"encodings"         yaml:"encodings"`
	ExtendedMnemonics []extendedMnemonicFile `json:"extendedMnemonics" yaml:"extendedMnemonics"`
	Description       []any                  `json:"description"       yaml:"description"`
}

// Parse decodes a JSON documentation file.
func Parse(data []byte) ([]*Instruction, error) {
	var files []instructionFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return convert(files)
}

// ParseYAML decodes a YAML documentation file with the same schema.
func ParseYAML(data []byte) ([]*Instruction, error) {
	var files []instructionFile
	if err := yaml.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return convert(files)
}

// Load reads and indexes a documentation file. The format follows the
// extension: .json, .yaml or .yml.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docs: %w", err)
	}

	var instrs []*Instruction
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		instrs, err = Parse(data)
	case ".yaml", ".yml":
		instrs, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return NewIndex(instrs), nil
}

func convert(files []instructionFile) ([]*Instruction, error) {
	instrs := make([]*Instruction, 0, len(files))
	for i, f := range files {
		instr, err := f.instruction()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		instrs = append(instrs, instr)
	}
	return instrs, nil
}

func (f instructionFile) instruction() (*Instruction, error) {
	instr := &Instruction{
		Encodings:         make([]Encoding, 0, len(f.Encodings)),
		ExtendedMnemonics: make([]ExtendedMnemonic, 0, len(f.ExtendedMnemonics)),
		Description:       &markup.Document{},
	}

	for i, e := range f.Encodings {
		enc := Encoding{Heading: e.Heading, Page: e.Page}
		for j, s := range e.Syntax {
			if s.Name == "" {
				return nil, fmt.Errorf("encoding %d: syntax %d: missing name", i, j)
			}
			enc.Syntaxes = append(enc.Syntaxes, Syntax(s))
		}
		instr.Encodings = append(instr.Encodings, enc)
	}

	for i, e := range f.ExtendedMnemonics {
		if e.Name == "" {
			return nil, fmt.Errorf("extended mnemonic %d: missing name", i)
		}
		instr.ExtendedMnemonics = append(instr.ExtendedMnemonics, ExtendedMnemonic(e))
	}

	decodeDocument(instr.Description, f.Description)
	return instr, nil
}

func decodeDocument(doc *markup.Document, nodes []any) {
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			logging.Default().Warn("unrecognised document node", logging.FieldNode, fmt.Sprintf("%T", raw))
			continue
		}

		switch kind, _ := node["type"].(string); kind {
		case "Ruler":
			doc.AddRuler()
		case "Paragraph":
			decodeParagraph(doc.AddParagraph(), node["content"])
		case "CodeBlock":
			content, _ := node["content"].(string)
			language, _ := node["language"].(string)
			doc.AddCodeBlock(content, language)
		case "Heading":
			level, _ := asInt(node["level"])
			var content any
			if inner, ok := node["content"].(map[string]any); ok {
				content = inner["content"]
			}
			decodeParagraph(doc.AddHeading(level), content)
		case "BulletList":
			items, _ := node["content"].([]any)
			list := doc.AddBulletList()
			for _, item := range items {
				sub, _ := item.([]any)
				decodeDocument(list.AddItem(), sub)
			}
		default:
			logging.Default().Warn("unrecognised document node", logging.FieldNode, kind)
		}
	}
}

func decodeParagraph(p *markup.Paragraph, content any) {
	chunks, _ := content.([]any)
	for _, raw := range chunks {
		switch chunk := raw.(type) {
		case string:
			p.AppendText(chunk)
		case map[string]any:
			if chunk["type"] == "Code" {
				code, _ := chunk["content"].(string)
				p.AppendCode(code)
				continue
			}
			logging.Default().Warn("unrecognised paragraph node", logging.FieldNode, chunk["type"])
		default:
			logging.Default().Warn("unrecognised paragraph node", logging.FieldNode, fmt.Sprintf("%T", raw))
		}
	}
}

// asInt accepts JSON numbers and YAML integers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
