package frontend

import (
	"encoding/json"
	"fmt"

	"github.com/declbridge/declbridge/internal/decltree"
)

// DecodeLibrary decodes one library bundle from the parser's JSON format.
func DecodeLibrary(data []byte) (LibraryInput, error) {
	var lib libraryJSON
	if err := json.Unmarshal(data, &lib); err != nil {
		return LibraryInput{}, fmt.Errorf("decode library bundle: %w", err)
	}
	if lib.Library == "" {
		return LibraryInput{}, fmt.Errorf("library bundle has no library name")
	}

	input := LibraryInput{
		Name:         lib.Library,
		Dependencies: lib.Dependencies,
		SourceHash:   Fingerprint(data),
	}
	for _, f := range lib.Files {
		file, err := decodeFile(lib.Library, f)
		if err != nil {
			return LibraryInput{}, fmt.Errorf("file %q: %w", f.FileName, err)
		}
		input.Files = append(input.Files, file)
	}
	return input, nil
}

type libraryJSON struct {
	Library      string     `json:"library"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Files        []fileJSON `json:"files"`
}

type fileJSON struct {
	FileName   string     `json:"fileName"`
	Directives []string   `json:"directives,omitempty"`
	Comments   []string   `json:"comments,omitempty"`
	Members    []declJSON `json:"members"`
}

type declJSON struct {
	Kind       string          `json:"kind"`
	Name       string          `json:"name,omitempty"`
	Comments   []string        `json:"comments,omitempty"`
	TypeParams []typeParamJSON `json:"typeParams,omitempty"`
	Extends    []typeJSON      `json:"extends,omitempty"`
	Implements []typeJSON      `json:"implements,omitempty"`
	Members    []memberJSON    `json:"members,omitempty"`
	Decls      []declJSON      `json:"decls,omitempty"`
	Entries    []enumEntryJSON `json:"entries,omitempty"`
	Signature  *signatureJSON  `json:"signature,omitempty"`
	Type       *typeJSON       `json:"type,omitempty"`
	Abstract   bool            `json:"abstract,omitempty"`
	Const      bool            `json:"const,omitempty"`
	Readonly   bool            `json:"readonly,omitempty"`

	From           string        `json:"from,omitempty"`
	Bindings       []bindingJSON `json:"bindings,omitempty"`
	NamespaceAlias string        `json:"namespaceAlias,omitempty"`
	DefaultAlias   string        `json:"defaultAlias,omitempty"`
	Wildcard       bool          `json:"wildcard,omitempty"`
	Default        bool          `json:"default,omitempty"`
	Decl           *declJSON     `json:"decl,omitempty"`
}

type bindingJSON struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

type enumEntryJSON struct {
	Name  string    `json:"name"`
	Value *typeJSON `json:"value,omitempty"`
}

type typeParamJSON struct {
	Name       string    `json:"name"`
	Constraint *typeJSON `json:"constraint,omitempty"`
	Default    *typeJSON `json:"default,omitempty"`
}

type paramJSON struct {
	Name     string    `json:"name"`
	Type     *typeJSON `json:"type,omitempty"`
	Optional bool      `json:"optional,omitempty"`
	Rest     bool      `json:"rest,omitempty"`
}

type signatureJSON struct {
	TypeParams []typeParamJSON `json:"typeParams,omitempty"`
	Params     []paramJSON     `json:"params,omitempty"`
	Return     *typeJSON       `json:"return,omitempty"`
}

type memberJSON struct {
	Kind      string         `json:"kind"`
	Name      string         `json:"name,omitempty"`
	Type      *typeJSON      `json:"type,omitempty"`
	Signature *signatureJSON `json:"signature,omitempty"`
	Optional  bool           `json:"optional,omitempty"`
	Readonly  bool           `json:"readonly,omitempty"`
	Static    bool           `json:"static,omitempty"`
	Comments  []string       `json:"comments,omitempty"`
	KeyName   string         `json:"keyName,omitempty"`
	KeyType   *typeJSON      `json:"keyType,omitempty"`
	ValueType *typeJSON      `json:"valueType,omitempty"`
}

type typeJSON struct {
	Kind       string         `json:"kind"`
	Name       string         `json:"name,omitempty"`
	Args       []typeJSON     `json:"args,omitempty"`
	Members    []typeJSON     `json:"members,omitempty"`
	Elems      []typeJSON     `json:"elems,omitempty"`
	Props      []memberJSON   `json:"props,omitempty"`
	Signature  *signatureJSON `json:"signature,omitempty"`
	Literal    string         `json:"literal,omitempty"`
	Text       string         `json:"text,omitempty"`
	Operand    *typeJSON      `json:"operand,omitempty"`
	Object     *typeJSON      `json:"object,omitempty"`
	Index      *typeJSON      `json:"index,omitempty"`
	KeyName    string         `json:"keyName,omitempty"`
	Constraint *typeJSON      `json:"constraint,omitempty"`
	Value      *typeJSON      `json:"value,omitempty"`
	Optional   bool           `json:"optional,omitempty"`
}

func decodeFile(library string, f fileJSON) (*decltree.SourceFile, error) {
	file := &decltree.SourceFile{
		DeclInfo:   &decltree.DeclInfo{Comments: f.Comments},
		Library:    library,
		FileName:   f.FileName,
		Directives: f.Directives,
	}
	for i, d := range f.Members {
		decl, err := decodeDecl(d)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		file.Members = append(file.Members, decl)
	}
	return file, nil
}

func decodeDecl(d declJSON) (decltree.Declaration, error) {
	info := &decltree.DeclInfo{Comments: d.Comments}
	switch d.Kind {
	case "class":
		extends, err := decodeTypes(d.Extends)
		if err != nil {
			return nil, err
		}
		implements, err := decodeTypes(d.Implements)
		if err != nil {
			return nil, err
		}
		members, err := decodeMembers(d.Members)
		if err != nil {
			return nil, err
		}
		tps, err := decodeTypeParams(d.TypeParams)
		if err != nil {
			return nil, err
		}
		return &decltree.Class{DeclInfo: info, Name: d.Name, TypeParams: tps,
			Extends: extends, Implements: implements, Members: members, Abstract: d.Abstract}, nil

	case "interface":
		extends, err := decodeTypes(d.Extends)
		if err != nil {
			return nil, err
		}
		members, err := decodeMembers(d.Members)
		if err != nil {
			return nil, err
		}
		tps, err := decodeTypeParams(d.TypeParams)
		if err != nil {
			return nil, err
		}
		return &decltree.Interface{DeclInfo: info, Name: d.Name, TypeParams: tps,
			Extends: extends, Members: members}, nil

	case "alias":
		if d.Type == nil {
			return nil, fmt.Errorf("alias %q has no target type", d.Name)
		}
		target, err := decodeType(*d.Type)
		if err != nil {
			return nil, err
		}
		tps, err := decodeTypeParams(d.TypeParams)
		if err != nil {
			return nil, err
		}
		return &decltree.TypeAlias{DeclInfo: info, Name: d.Name, TypeParams: tps, Target: target}, nil

	case "enum":
		enum := &decltree.Enum{DeclInfo: info, Name: d.Name, Const: d.Const}
		for _, e := range d.Entries {
			entry := decltree.EnumEntry{Name: e.Name}
			if e.Value != nil {
				t, err := decodeType(*e.Value)
				if err != nil {
					return nil, err
				}
				lit, ok := t.(decltree.Literal)
				if !ok {
					return nil, fmt.Errorf("enum entry %s.%s: initializer is not a literal", d.Name, e.Name)
				}
				entry.Value = &lit
			}
			enum.Entries = append(enum.Entries, entry)
		}
		return enum, nil

	case "function":
		sig, err := decodeSignaturePtr(d.Signature)
		if err != nil {
			return nil, err
		}
		return &decltree.Function{DeclInfo: info, Name: d.Name, Signature: sig}, nil

	case "variable":
		var t decltree.Type
		if d.Type != nil {
			var err error
			t, err = decodeType(*d.Type)
			if err != nil {
				return nil, err
			}
		}
		return &decltree.Variable{DeclInfo: info, Name: d.Name, Type: t,
			Const: d.Const, Readonly: d.Readonly}, nil

	case "namespace":
		members, err := decodeDecls(d.Decls)
		if err != nil {
			return nil, err
		}
		return &decltree.Namespace{DeclInfo: info, Name: d.Name, Members: members}, nil

	case "module":
		members, err := decodeDecls(d.Decls)
		if err != nil {
			return nil, err
		}
		return &decltree.Module{DeclInfo: info, Name: d.Name, Members: members}, nil

	case "augmentedModule":
		members, err := decodeDecls(d.Decls)
		if err != nil {
			return nil, err
		}
		return &decltree.AugmentedModule{DeclInfo: info, Name: d.Name, Members: members}, nil

	case "global":
		members, err := decodeDecls(d.Decls)
		if err != nil {
			return nil, err
		}
		return &decltree.GlobalBlock{DeclInfo: info, Members: members}, nil

	case "import":
		imp := &decltree.Import{DeclInfo: info, From: d.From,
			NamespaceAlias: d.NamespaceAlias, DefaultAlias: d.DefaultAlias}
		for _, b := range d.Bindings {
			imp.Bindings = append(imp.Bindings, decltree.ImportBinding{Name: b.Name, Alias: b.Alias})
		}
		return imp, nil

	case "export":
		exp := &decltree.Export{DeclInfo: info, From: d.From, Wildcard: d.Wildcard,
			NamespaceAlias: d.NamespaceAlias, Default: d.Default}
		for _, b := range d.Bindings {
			exp.Bindings = append(exp.Bindings, decltree.ExportBinding{Name: b.Name, Alias: b.Alias})
		}
		if d.Decl != nil {
			inner, err := decodeDecl(*d.Decl)
			if err != nil {
				return nil, err
			}
			exp.Decl = inner
		}
		return exp, nil

	default:
		return nil, fmt.Errorf("unknown declaration kind %q", d.Kind)
	}
}

func decodeDecls(ds []declJSON) ([]decltree.Declaration, error) {
	var out []decltree.Declaration
	for i, d := range ds {
		decl, err := decodeDecl(d)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		out = append(out, decl)
	}
	return out, nil
}

func decodeType(t typeJSON) (decltree.Type, error) {
	switch t.Kind {
	case "named":
		if t.Name == "" {
			return nil, fmt.Errorf("named type with empty name")
		}
		args, err := decodeTypes(t.Args)
		if err != nil {
			return nil, err
		}
		return decltree.Ref(t.Name, args...), nil

	case "union":
		members, err := decodeTypes(t.Members)
		if err != nil {
			return nil, err
		}
		return decltree.Union{Members: members}, nil

	case "intersection":
		members, err := decodeTypes(t.Members)
		if err != nil {
			return nil, err
		}
		return decltree.Intersection{Members: members}, nil

	case "object":
		members, err := decodeMembers(t.Props)
		if err != nil {
			return nil, err
		}
		return decltree.Object{Members: members}, nil

	case "func":
		sig, err := decodeSignaturePtr(t.Signature)
		if err != nil {
			return nil, err
		}
		return decltree.Func{Signature: sig}, nil

	case "tuple":
		elems, err := decodeTypes(t.Elems)
		if err != nil {
			return nil, err
		}
		return decltree.Tuple{Elems: elems}, nil

	case "literal":
		switch t.Literal {
		case "string":
			return decltree.Literal{Kind: decltree.StringLiteral, Text: t.Text}, nil
		case "number":
			return decltree.Literal{Kind: decltree.NumberLiteral, Text: t.Text}, nil
		case "boolean":
			return decltree.Literal{Kind: decltree.BooleanLiteral, Text: t.Text}, nil
		default:
			return nil, fmt.Errorf("unknown literal kind %q", t.Literal)
		}

	case "keysof":
		if t.Operand == nil {
			return nil, fmt.Errorf("keysof with no operand")
		}
		operand, err := decodeType(*t.Operand)
		if err != nil {
			return nil, err
		}
		return decltree.KeysOf{Operand: operand}, nil

	case "indexed":
		if t.Object == nil || t.Index == nil {
			return nil, fmt.Errorf("indexed access needs object and index")
		}
		object, err := decodeType(*t.Object)
		if err != nil {
			return nil, err
		}
		index, err := decodeType(*t.Index)
		if err != nil {
			return nil, err
		}
		return decltree.IndexedAccess{Object: object, Index: index}, nil

	case "mapped":
		if t.Constraint == nil || t.Value == nil {
			return nil, fmt.Errorf("mapped type needs constraint and value")
		}
		constraint, err := decodeType(*t.Constraint)
		if err != nil {
			return nil, err
		}
		value, err := decodeType(*t.Value)
		if err != nil {
			return nil, err
		}
		return decltree.Mapped{KeyName: t.KeyName, Constraint: constraint,
			Value: value, Optional: t.Optional}, nil

	default:
		return nil, fmt.Errorf("unknown type kind %q", t.Kind)
	}
}

func decodeTypes(ts []typeJSON) ([]decltree.Type, error) {
	var out []decltree.Type
	for _, t := range ts {
		decoded, err := decodeType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func decodeMembers(ms []memberJSON) ([]decltree.Member, error) {
	var out []decltree.Member
	for i, m := range ms {
		decoded, err := decodeMember(m)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

func decodeMember(m memberJSON) (decltree.Member, error) {
	switch m.Kind {
	case "property":
		var t decltree.Type
		if m.Type != nil {
			var err error
			t, err = decodeType(*m.Type)
			if err != nil {
				return nil, err
			}
		}
		return decltree.Property{Name: m.Name, Type: t, Optional: m.Optional,
			Readonly: m.Readonly, Static: m.Static, Comments: m.Comments}, nil

	case "method":
		sig, err := decodeSignaturePtr(m.Signature)
		if err != nil {
			return nil, err
		}
		return decltree.Method{Name: m.Name, Signature: sig, Optional: m.Optional,
			Static: m.Static, Comments: m.Comments}, nil

	case "call":
		sig, err := decodeSignaturePtr(m.Signature)
		if err != nil {
			return nil, err
		}
		return decltree.Call{Signature: sig, Comments: m.Comments}, nil

	case "construct":
		sig, err := decodeSignaturePtr(m.Signature)
		if err != nil {
			return nil, err
		}
		return decltree.Construct{Signature: sig, Comments: m.Comments}, nil

	case "index":
		if m.KeyType == nil || m.ValueType == nil {
			return nil, fmt.Errorf("index signature needs keyType and valueType")
		}
		keyType, err := decodeType(*m.KeyType)
		if err != nil {
			return nil, err
		}
		valueType, err := decodeType(*m.ValueType)
		if err != nil {
			return nil, err
		}
		return decltree.Index{KeyName: m.KeyName, KeyType: keyType,
			ValueType: valueType, Readonly: m.Readonly}, nil

	default:
		return nil, fmt.Errorf("unknown member kind %q", m.Kind)
	}
}

func decodeSignaturePtr(s *signatureJSON) (decltree.Signature, error) {
	if s == nil {
		return decltree.Signature{}, nil
	}
	return decodeSignature(*s)
}

func decodeSignature(s signatureJSON) (decltree.Signature, error) {
	tps, err := decodeTypeParams(s.TypeParams)
	if err != nil {
		return decltree.Signature{}, err
	}
	sig := decltree.Signature{TypeParams: tps}
	for _, p := range s.Params {
		param := decltree.Param{Name: p.Name, Optional: p.Optional, Rest: p.Rest}
		if p.Type != nil {
			t, err := decodeType(*p.Type)
			if err != nil {
				return decltree.Signature{}, err
			}
			param.Type = t
		}
		sig.Params = append(sig.Params, param)
	}
	if s.Return != nil {
		ret, err := decodeType(*s.Return)
		if err != nil {
			return decltree.Signature{}, err
		}
		sig.Return = ret
	}
	return sig, nil
}

func decodeTypeParams(tps []typeParamJSON) ([]decltree.TypeParam, error) {
	var out []decltree.TypeParam
	for _, tp := range tps {
		decoded := decltree.TypeParam{Name: tp.Name}
		if tp.Constraint != nil {
			c, err := decodeType(*tp.Constraint)
			if err != nil {
				return nil, err
			}
			decoded.Constraint = c
		}
		if tp.Default != nil {
			d, err := decodeType(*tp.Default)
			if err != nil {
				return nil, err
			}
			decoded.Default = d
		}
		out = append(out, decoded)
	}
	return out, nil
}
