package decltree

// Member is one entry of a class, interface or object type. The set of
// implementations is closed: property, method, call signature, construct
// signature, index signature.
type Member interface {
	memberNode()
	// MemberName returns the member's declared name, or "" for call,
	// construct and index signatures.
	MemberName() string
	String() string
}

// Property member.
type Property struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
	Static   bool
	Comments []string
}

func (p Property) memberNode()        {}
func (p Property) MemberName() string { return p.Name }
func (p Property) String() string {
	t := "any"
	if p.Type != nil {
		t = p.Type.String()
	}
	opt := ""
	if p.Optional {
		opt = "?"
	}
	return p.Name + opt + ": " + t
}

// Method member.
type Method struct {
	Name      string
	Signature Signature
	Optional  bool
	Static    bool
	Comments  []string
}

func (m Method) memberNode()        {}
func (m Method) MemberName() string { return m.Name }
func (m Method) String() string {
	return m.Name + m.Signature.String()
}

// Call signature member.
type Call struct {
	Signature Signature
	Comments  []string
}

func (c Call) memberNode()        {}
func (c Call) MemberName() string { return "" }
func (c Call) String() string     { return c.Signature.String() }

// Construct signature member.
type Construct struct {
	Signature Signature
	Comments  []string
}

func (c Construct) memberNode()        {}
func (c Construct) MemberName() string { return "" }
func (c Construct) String() string     { return "new " + c.Signature.String() }

// Index signature member: [key: KeyType]: ValueType.
type Index struct {
	KeyName   string
	KeyType   Type
	ValueType Type
	Readonly  bool
}

func (i Index) memberNode()        {}
func (i Index) MemberName() string { return "" }
func (i Index) String() string {
	return "[" + i.KeyName + ": " + i.KeyType.String() + "]: " + i.ValueType.String()
}

// ObjectMembersNamed returns, in order, the members of an object type or
// container member list that carry the given name.
func ObjectMembersNamed(members []Member, name string) []Member {
	var out []Member
	for _, m := range members {
		if m.MemberName() == name {
			out = append(out, m)
		}
	}
	return out
}
