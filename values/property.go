package values

import "sort"

// PropertyKeyKind tags which PropertyKey variant is active (spec §3.3).
type PropertyKeyKind byte

const (
	KeyString PropertyKeyKind = iota
	KeySymbol
	KeyIndex
)

// PropertyKey is one of String, Symbol, or a canonical array Index. A
// string that looks like an array index ("0", "1", ...) is always stored
// canonically as KeyIndex, per spec §3.3.
type PropertyKey struct {
	Kind  PropertyKeyKind
	Str   string
	Sym   *Symbol
	Index uint32
}

func StringKey(s string) PropertyKey {
	if idx, ok := canonicalIndex(s); ok {
		return PropertyKey{Kind: KeyIndex, Index: idx}
	}
	return PropertyKey{Kind: KeyString, Str: s}
}

func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{Kind: KeySymbol, Sym: s} }

func IndexKey(i uint32) PropertyKey { return PropertyKey{Kind: KeyIndex, Index: i} }

func canonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] == '0' || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > 0xFFFFFFFE {
			return 0, false
		}
	}
	return uint32(n), true
}

// ToPropertyKey implements ToPropertyKey (7.1.19).
func ToPropertyKey(v Value) PropertyKey {
	if v.typ == TypeSymbol {
		return SymbolKey(v.sym)
	}
	return StringKey(v.ToStringValue())
}

func (k PropertyKey) String() string {
	switch k.Kind {
	case KeyIndex:
		return itoa(k.Index)
	case KeySymbol:
		return k.Sym.String()
	default:
		return k.Str
	}
}

func itoa(i uint32) string {
	if i == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// DescriptorKind distinguishes the three-way sum of spec §3.3.
type DescriptorKind byte

const (
	DescGeneric DescriptorKind = iota
	DescData
	DescAccessor
)

// PropertyDescriptor is the attribute record attached to a property. The
// pointer fields are present/absent to model "field not specified" for
// the ValidateAndApplyPropertyDescriptor algorithm (spec §4.2).
type PropertyDescriptor struct {
	Kind         DescriptorKind
	Value        *Value
	Writable     *bool
	Get          *Value
	Set          *Value
	Enumerable   *bool
	Configurable *bool
}

func DataDescriptor(value Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Kind: DescData, Value: &value, Writable: &writable,
		Enumerable: &enumerable, Configurable: &configurable,
	}
}

func AccessorDescriptor(get, set Value, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Kind: DescAccessor, Get: &get, Set: &set,
		Enumerable: &enumerable, Configurable: &configurable,
	}
}

func boolPtr(b bool) *bool { return &b }

func (d PropertyDescriptor) isEnumerable() bool   { return d.Enumerable != nil && *d.Enumerable }
func (d PropertyDescriptor) isConfigurable() bool { return d.Configurable != nil && *d.Configurable }
func (d PropertyDescriptor) isWritable() bool     { return d.Writable != nil && *d.Writable }

// PropertyMap is an ordered map from PropertyKey to descriptor. Iteration
// order for OwnPropertyKeys is: integer indices ascending, then string
// keys in insertion order, then symbol keys in insertion order (spec
// §3.3, §4.2).
type PropertyMap struct {
	entries map[PropertyKey]*PropertyDescriptor
	// order records first-insertion order for string and symbol keys;
	// index keys are re-sorted numerically on demand since PHP/JS arrays
	// are sparse and insertion order need not track numeric order.
	order []PropertyKey
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{entries: make(map[PropertyKey]*PropertyDescriptor)}
}

func (m *PropertyMap) Get(key PropertyKey) (*PropertyDescriptor, bool) {
	d, ok := m.entries[key]
	return d, ok
}

func (m *PropertyMap) Set(key PropertyKey, desc *PropertyDescriptor) {
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = desc
}

func (m *PropertyMap) Delete(key PropertyKey) {
	if _, exists := m.entries[key]; !exists {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Keys returns keys in the spec-mandated enumeration order.
func (m *PropertyMap) Keys() []PropertyKey {
	var indices []PropertyKey
	var strs []PropertyKey
	var syms []PropertyKey
	for _, k := range m.order {
		switch k.Kind {
		case KeyIndex:
			indices = append(indices, k)
		case KeyString:
			strs = append(strs, k)
		case KeySymbol:
			syms = append(syms, k)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Index < indices[j].Index })
	out := make([]PropertyKey, 0, len(indices)+len(strs)+len(syms))
	out = append(out, indices...)
	out = append(out, strs...)
	out = append(out, syms...)
	return out
}

func (m *PropertyMap) Len() int { return len(m.entries) }

// ValidateAndApplyPropertyDescriptor implements the abstract operation of
// the same name (ECMA-262 10.1.6.3), used by every DefineOwnProperty
// override (spec §4.2 "Descriptor compatibility").
func ValidateAndApplyPropertyDescriptor(m *PropertyMap, key PropertyKey, extensible bool, desc PropertyDescriptor) bool {
	current, exists := m.Get(key)
	if !exists {
		if !extensible {
			return false
		}
		m.Set(key, completeDescriptor(desc))
		return true
	}
	if desc.Kind == DescGeneric && desc.Value == nil && desc.Get == nil && desc.Set == nil &&
		desc.Writable == nil && desc.Enumerable == nil && desc.Configurable == nil {
		return true // no-op descriptor always validates
	}
	if !current.isConfigurable() {
		if desc.Configurable != nil && *desc.Configurable {
			return false
		}
		if desc.Enumerable != nil && *desc.Enumerable != current.isEnumerable() {
			return false
		}
		if desc.Kind != DescGeneric && desc.Kind != kindOf(current) {
			return false // data<->accessor conversion needs configurable:true
		}
		if current.Kind == DescData && !current.isWritable() {
			if desc.Writable != nil && *desc.Writable {
				return false
			}
			if desc.Value != nil && !SameValue(*desc.Value, *current.Value) {
				return false
			}
		}
		if current.Kind == DescAccessor {
			if desc.Get != nil && !sameAccessor(current.Get, desc.Get) {
				return false
			}
			if desc.Set != nil && !sameAccessor(current.Set, desc.Set) {
				return false
			}
		}
	}
	merged := mergeDescriptor(*current, desc)
	m.Set(key, &merged)
	return true
}

func kindOf(d *PropertyDescriptor) DescriptorKind {
	if d.Kind == DescGeneric {
		if d.Value != nil || d.Writable != nil {
			return DescData
		}
		if d.Get != nil || d.Set != nil {
			return DescAccessor
		}
	}
	return d.Kind
}

func sameAccessor(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return SameValue(*a, *b)
}

func completeDescriptor(desc PropertyDescriptor) *PropertyDescriptor {
	out := desc
	if out.Kind == DescGeneric {
		if out.Get != nil || out.Set != nil {
			out.Kind = DescAccessor
		} else {
			out.Kind = DescData
		}
	}
	if out.Enumerable == nil {
		out.Enumerable = boolPtr(false)
	}
	if out.Configurable == nil {
		out.Configurable = boolPtr(false)
	}
	if out.Kind == DescData {
		if out.Value == nil {
			undef := Undefined
			out.Value = &undef
		}
		if out.Writable == nil {
			out.Writable = boolPtr(false)
		}
	}
	return &out
}

func mergeDescriptor(current, patch PropertyDescriptor) PropertyDescriptor {
	out := current
	if patch.Kind != DescGeneric && patch.Kind != out.Kind {
		out.Kind = patch.Kind
		out.Value, out.Writable, out.Get, out.Set = nil, nil, nil, nil
	}
	if patch.Value != nil {
		out.Value = patch.Value
	}
	if patch.Writable != nil {
		out.Writable = patch.Writable
	}
	if patch.Get != nil {
		out.Get = patch.Get
	}
	if patch.Set != nil {
		out.Set = patch.Set
	}
	if patch.Enumerable != nil {
		out.Enumerable = patch.Enumerable
	}
	if patch.Configurable != nil {
		out.Configurable = patch.Configurable
	}
	return out
}
